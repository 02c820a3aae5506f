package models

// Email represents a decoded message ready to be relayed
type Email struct {
	UID      uint32
	Subject  string
	From     string
	Date     string
	BodyText string
	TraceID  string
}

// Attachment is a file part extracted from a message
type Attachment struct {
	Filename     string
	OriginalName string
	ContentType  string
	Content      []byte
}
