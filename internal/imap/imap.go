package imap

// Client is the mailbox session used by one poll cycle. Message ids are IMAP UIDs.
type Client interface {
	Connect(server string) error
	Login(user, password string) error
	SelectMailbox(name string) error
	ListUnseen() ([]uint32, error)
	FetchRaw(uid uint32) ([]byte, error)
	MarkSeen(uid uint32) error
	Close() error
}

// Factory opens a fresh client for every cycle
type Factory func() Client
