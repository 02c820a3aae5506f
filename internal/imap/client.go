package imap

import (
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
)

// ErrNotConnected is returned by every operation issued before a successful Connect
var ErrNotConnected = errors.New("not connected")

const defaultTimeout = 30 * time.Second

type StandardClient struct {
	client  *client.Client
	timeout time.Duration
}

// NewStandardClient creates a new StandardClient. A non-positive timeout falls back to 30 seconds.
func NewStandardClient(timeout time.Duration) *StandardClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &StandardClient{
		timeout: timeout,
	}
}

// Connect establishes a secure connection to the IMAP server using TLS. It returns an error if the connection fails.
func (c *StandardClient) Connect(server string) error {
	// The dialer timeout also bounds the TLS handshake and the server greeting
	cl, err := client.DialWithDialerTLS(&net.Dialer{Timeout: c.timeout}, server, nil)
	if err != nil {
		return fmt.Errorf("IMAP connection error: %w", err)
	}
	cl.Timeout = c.timeout
	c.client = cl
	return nil
}

// Login authenticates the user with the IMAP server using the provided username and password.
func (c *StandardClient) Login(user, password string) error {
	if c.client == nil {
		return ErrNotConnected
	}
	if err := c.client.Login(user, password); err != nil {
		return fmt.Errorf("login as %s: %w", user, err)
	}
	return nil
}

// SelectMailbox selects the specified mailbox (e.g., "INBOX") read-write, so flags can be stored later.
func (c *StandardClient) SelectMailbox(name string) error {
	if c.client == nil {
		return ErrNotConnected
	}
	if _, err := c.client.Select(name, false); err != nil {
		return fmt.Errorf("select %s: %w", name, err)
	}
	return nil
}

// ListUnseen returns the UIDs of every message without the \Seen flag, in server order.
func (c *StandardClient) ListUnseen() ([]uint32, error) {
	if c.client == nil {
		return nil, ErrNotConnected
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}

	uids, err := c.client.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("error searching for unseen emails: %w", err)
	}

	return uids, nil
}

// FetchRaw retrieves the full RFC 822 bytes of a message with BODY.PEEK[], which leaves the \Seen flag
// untouched. A message that vanished or has no body yields an empty slice and no error.
func (c *StandardClient) FetchRaw(uid uint32) ([]byte, error) {
	if c.client == nil {
		return nil, ErrNotConnected
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{section.FetchItem(), imap.FetchUid}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)

	go func() {
		done <- c.client.UidFetch(seqSet, items, messages)
	}()

	var msg *imap.Message
	for m := range messages {
		msg = m
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("error fetching message UID %d: %w", uid, err)
	}

	if msg == nil {
		return nil, nil
	}

	r := msg.GetBody(section)
	if r == nil {
		return nil, nil
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading message UID %d: %w", uid, err)
	}
	return raw, nil
}

// MarkSeen marks the email with the specified UID as seen (read) on the IMAP server.
func (c *StandardClient) MarkSeen(uid uint32) error {
	if c.client == nil {
		return ErrNotConnected
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)

	item := imap.FormatFlagsOp(imap.AddFlags, true)
	flags := []interface{}{imap.SeenFlag}

	return c.client.UidStore(seqSet, item, flags, nil)
}

// Close logs out from the IMAP server and closes the connection. If there is no active connection, it simply returns nil.
func (c *StandardClient) Close() error {
	if c.client == nil {
		return nil
	}
	err := c.client.Logout()
	c.client = nil
	return err
}
