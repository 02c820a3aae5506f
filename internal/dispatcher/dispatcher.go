package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"mail-telegram-bridge/internal/logging"
	"mail-telegram-bridge/internal/models"
	"mail-telegram-bridge/internal/telegram"
)

const (
	// MaxBodyRunes bounds the body excerpt in a notification
	MaxBodyRunes = 4000
	// maxMessageRunes is the Telegram limit for a single text message
	maxMessageRunes = 4096
	tempPattern     = "mail-bridge-*"
)

// DeliveryError reports a failed send of a notification or an attachment
type DeliveryError struct {
	Kind string
	Name string
	Err  error
}

func (e *DeliveryError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("deliver %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("deliver %s %s: %v", e.Kind, e.Name, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Result summarizes the delivery of one email
type Result struct {
	NotificationSent bool
	AttachmentsSent  int
	AttachmentErrors []error
}

type Service struct {
	client  telegram.Client
	chatID  string
	tempDir string
}

// NewService creates a dispatcher sending to chatID. Attachments are staged under tempDir, or the OS default when empty.
func NewService(client telegram.Client, chatID, tempDir string) *Service {
	return &Service{
		client:  client,
		chatID:  chatID,
		tempDir: tempDir,
	}
}

// Dispatch sends the notification and then every attachment, one at a time and in order.
// A failed send never stops the remaining ones.
func (s *Service) Dispatch(ctx context.Context, email *models.Email, attachments []models.Attachment) Result {
	locallog := logging.ForMessage(email.TraceID)
	var res Result

	if err := s.SendNotification(ctx, email); err != nil {
		locallog.WithError(err).Error("Error sending notification")
	} else {
		res.NotificationSent = true
	}

	for _, att := range attachments {
		if err := s.SendAttachment(ctx, att); err != nil {
			locallog.WithError(err).Errorf("Error sending attachment %s", att.Filename)
			res.AttachmentErrors = append(res.AttachmentErrors, err)
			s.reportAttachmentFailure(ctx, att, err)
			continue
		}
		res.AttachmentsSent++
	}

	locallog.Infof("Relayed email (notification sent: %t, attachments: %d/%d)",
		res.NotificationSent, res.AttachmentsSent, len(attachments))
	return res
}

// SendNotification posts the summary text of an email
func (s *Service) SendNotification(ctx context.Context, email *models.Email) error {
	if err := s.client.SendText(ctx, s.chatID, FormatNotification(email)); err != nil {
		return &DeliveryError{Kind: "notification", Err: err}
	}
	return nil
}

// SendAttachment stages the content in a private temp directory and uploads it as a document.
// The directory is removed whether or not the upload succeeds.
func (s *Service) SendAttachment(ctx context.Context, att models.Attachment) error {
	if len(att.Content) == 0 {
		return &DeliveryError{Kind: "attachment", Name: att.Filename, Err: errors.New("empty content")}
	}

	dir, err := os.MkdirTemp(s.tempDir, tempPattern)
	if err != nil {
		return &DeliveryError{Kind: "attachment", Name: att.Filename, Err: err}
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			logging.Log.WithError(err).Warnf("failed to remove temp dir %s", dir)
		}
	}()

	path := filepath.Join(dir, att.Filename)
	if err := os.WriteFile(path, att.Content, 0o600); err != nil {
		return &DeliveryError{Kind: "attachment", Name: att.Filename, Err: err}
	}

	if err := s.client.SendFile(ctx, s.chatID, path, "📎 Attachment: "+att.Filename); err != nil {
		return &DeliveryError{Kind: "attachment", Name: att.Filename, Err: err}
	}
	return nil
}

// reportAttachmentFailure tells the chat about a lost attachment; its own failure is only logged
func (s *Service) reportAttachmentFailure(ctx context.Context, att models.Attachment, cause error) {
	reason := cause
	var derr *DeliveryError
	if errors.As(cause, &derr) {
		reason = derr.Err
	}

	text := fmt.Sprintf("❌ Error sending attachment %s: %v", att.Filename, reason)
	if err := s.client.SendText(ctx, s.chatID, text); err != nil {
		logging.Log.WithError(err).Warnf("Could not report failed attachment %s", att.Filename)
	}
}

// FormatNotification renders the chat message for an email. The body gets at most MaxBodyRunes
// characters and never more than what is left of the Telegram limit after the header lines.
func FormatNotification(email *models.Email) string {
	var b strings.Builder
	b.WriteString("📧 New email received!\n\n")
	fmt.Fprintf(&b, "From: %s\n", email.From)
	fmt.Fprintf(&b, "Subject: %s\n", email.Subject)
	fmt.Fprintf(&b, "Date: %s\n\n", email.Date)
	b.WriteString("Content:\n")

	header := b.String()
	budget := min(MaxBodyRunes, maxMessageRunes-utf8.RuneCountInString(header))
	if budget <= 0 {
		return truncateRunes(header, maxMessageRunes)
	}
	return header + truncateRunes(TruncateBody(email.BodyText), budget)
}

// TruncateBody keeps at most MaxBodyRunes characters of the body
func TruncateBody(body string) string {
	return truncateRunes(body, MaxBodyRunes)
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
