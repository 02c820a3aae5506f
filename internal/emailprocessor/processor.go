package emailprocessor

import (
	"context"
	"errors"
	"fmt"

	"mail-telegram-bridge/internal/dispatcher"
	imapclient "mail-telegram-bridge/internal/imap"
	"mail-telegram-bridge/internal/logging"
	"mail-telegram-bridge/internal/mailparse"
)

// ErrEmptyMessage is returned when the server hands back no bytes for a UID.
// The message is left unseen so a later cycle can pick it up again.
var ErrEmptyMessage = errors.New("empty message")

type Processor struct {
	imapClient imapclient.Client
	dispatcher *dispatcher.Service
}

// NewProcessor creates a new Processor bound to an open mailbox session and a chat dispatcher
func NewProcessor(imapClient imapclient.Client, dispatcher *dispatcher.Service) *Processor {
	return &Processor{
		imapClient: imapClient,
		dispatcher: dispatcher,
	}
}

// ProcessEmail runs the relay workflow for one message:
// fetch → decode → extract attachments → dispatch → mark as seen
func (p *Processor) ProcessEmail(ctx context.Context, uid uint32) error {
	raw, err := p.imapClient.FetchRaw(uid)
	if err != nil {
		return fmt.Errorf("fetch UID %d: %w", uid, err)
	}
	if len(raw) == 0 {
		return fmt.Errorf("fetch UID %d: %w", uid, ErrEmptyMessage)
	}

	email := mailparse.Decode(raw)
	email.UID = uid

	locallog := logging.ForMessage(email.TraceID).WithField("uid", uid)
	locallog.Infof("Processing email from %s: %s", email.From, email.Subject)

	attachments := mailparse.ExtractAttachments(raw, email.TraceID)
	if len(attachments) > 0 {
		locallog.Infof("Found %d attachment(s)", len(attachments))
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	p.dispatcher.Dispatch(ctx, email, attachments)

	// Delivery was attempted, so the message is acknowledged even if some sends failed
	if err := p.imapClient.MarkSeen(uid); err != nil {
		locallog.WithError(err).Errorf("Error marking message UID %d as seen", uid)
	}

	return nil
}
