package mailparse

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"strings"

	"mail-telegram-bridge/internal/logging"
	"mail-telegram-bridge/internal/models"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/charset"
	"github.com/google/uuid"
)

const (
	NoSubject       = "No Subject"
	UnknownHeader   = "Unknown"
	NoTextContent   = "No text content found"
	ExtractionError = "Error extracting email content"
)

// wordDecoder understands every charset registered by go-message/charset, not only utf-8 and latin-1
var wordDecoder = &mime.WordDecoder{CharsetReader: charset.Reader}

// DecodeHeader decodes MIME-encoded headers (e.g., "=?UTF-8?B?...?=") to plain text.
// Consecutive encoded words may use different charsets; they are concatenated.
func DecodeHeader(encoded string) (string, error) {
	decoded, err := wordDecoder.DecodeHeader(encoded)
	if err != nil {
		return "", err
	}
	return decoded, nil
}

// DecodeSubject never fails: absent, blank or undecodable subjects become NoSubject
func DecodeSubject(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return NoSubject
	}
	decoded, err := DecodeHeader(raw)
	if err != nil {
		logging.Log.WithError(err).Warnf("Could not decode subject %q", raw)
		return NoSubject
	}
	decoded = strings.TrimSpace(strings.ToValidUTF8(decoded, "�"))
	if decoded == "" {
		return NoSubject
	}
	return decoded
}

// Decode turns a raw RFC 5322 message into its relayable form. It never returns an error:
// content problems degrade to sentinel strings.
func Decode(raw []byte) *models.Email {
	email := &models.Email{
		Subject:  NoSubject,
		From:     UnknownHeader,
		Date:     UnknownHeader,
		BodyText: ExtractionError,
		TraceID:  uuid.New().String(),
	}
	locallog := logging.ForMessage(email.TraceID)

	entity, err := readEntity(raw)
	if err != nil {
		locallog.WithError(err).Error("Error reading message header")
		return email
	}

	email.Subject = DecodeSubject(entity.Header.Get("Subject"))
	email.From = headerOr(entity.Header, "From", UnknownHeader)
	email.Date = headerOr(entity.Header, "Date", UnknownHeader)

	body, err := extractBody(entity)
	if err != nil {
		locallog.WithError(err).Error("Error getting email content")
		return email
	}
	email.BodyText = body
	return email
}

// readEntity parses the message, tolerating unknown charsets and transfer encodings
func readEntity(raw []byte) (*message.Entity, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, io.ErrUnexpectedEOF
	}
	entity, err := message.Read(bytes.NewReader(raw))
	if err != nil && !recoverable(err) {
		return nil, err
	}
	if entity == nil {
		return nil, fmt.Errorf("unparseable message: %w", err)
	}
	return entity, nil
}

func recoverable(err error) bool {
	return message.IsUnknownCharset(err) || message.IsUnknownEncoding(err)
}

func headerOr(h message.Header, key, fallback string) string {
	if v := strings.TrimSpace(h.Get(key)); v != "" {
		return v
	}
	return fallback
}

// extractBody prefers the first text/plain part, then the first text/html part
func extractBody(entity *message.Entity) (string, error) {
	var plain, html string

	err := entity.Walk(func(_ []int, part *message.Entity, err error) error {
		if err != nil && !recoverable(err) {
			return err
		}
		if part == nil {
			return nil
		}
		if part.MultipartReader() != nil {
			return nil
		}
		if disp, _, _ := part.Header.ContentDisposition(); strings.EqualFold(disp, "attachment") {
			return nil
		}

		switch mediaType(part.Header) {
		case "text/plain":
			if plain != "" {
				return nil
			}
			text, err := readText(part)
			if err != nil {
				return err
			}
			plain = strings.TrimSpace(text)
		case "text/html":
			if html != "" {
				return nil
			}
			text, err := readText(part)
			if err != nil {
				return err
			}
			if strings.TrimSpace(text) != "" {
				html = text
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	if plain != "" {
		return plain, nil
	}
	if html != "" {
		if text := HTMLToText(html); text != "" {
			return text, nil
		}
	}
	return NoTextContent, nil
}

// mediaType defaults to text/plain like RFC 2045 does for a missing or broken Content-Type
func mediaType(h message.Header) string {
	if h.Get("Content-Type") == "" {
		return "text/plain"
	}
	t, _, err := h.ContentType()
	if err != nil || t == "" {
		return "text/plain"
	}
	return strings.ToLower(t)
}

func readText(part *message.Entity) (string, error) {
	body, err := io.ReadAll(part.Body)
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(body), "�"), nil
}
