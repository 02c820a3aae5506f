package mailparse

import (
	"io"
	"strings"
	"unicode"

	"mail-telegram-bridge/internal/logging"
	"mail-telegram-bridge/internal/models"

	"github.com/emersion/go-message"
)

const (
	fallbackFilename = "attachment"
	maxFilenameRunes = 200
)

// ExtractAttachments returns the file parts of a raw message in MIME order. A part counts as an
// attachment when it is not a multipart container, carries a Content-Disposition header and
// names a file. Any failure drops the whole set and is only logged under traceID.
func ExtractAttachments(raw []byte, traceID string) []models.Attachment {
	locallog := logging.ForMessage(traceID)

	entity, err := readEntity(raw)
	if err != nil {
		locallog.WithError(err).Error("Error getting attachments")
		return nil
	}

	var attachments []models.Attachment
	err = entity.Walk(func(_ []int, part *message.Entity, err error) error {
		if err != nil && !recoverable(err) {
			return err
		}
		if part == nil {
			return nil
		}
		if part.MultipartReader() != nil || strings.HasPrefix(mediaType(part.Header), "multipart/") {
			return nil
		}
		if part.Header.Get("Content-Disposition") == "" {
			return nil
		}

		name := partFilename(part.Header)
		if name == "" {
			return nil
		}

		content, err := io.ReadAll(part.Body)
		if err != nil {
			return err
		}
		if len(content) == 0 {
			locallog.Warnf("Empty content for attachment %s", name)
			return nil
		}

		attachments = append(attachments, models.Attachment{
			Filename:     SanitizeFilename(name),
			OriginalName: name,
			ContentType:  mediaType(part.Header),
			Content:      content,
		})
		return nil
	})
	if err != nil {
		locallog.WithError(err).Error("Error getting attachments")
		return nil
	}
	return attachments
}

// partFilename reads the disposition filename, falling back to the Content-Type name parameter
func partFilename(h message.Header) string {
	var name string
	if _, params, err := h.ContentDisposition(); err == nil {
		name = params["filename"]
	}
	if name == "" {
		if _, params, err := h.ContentType(); err == nil {
			name = params["name"]
		}
	}
	if name == "" {
		return ""
	}

	decoded, err := DecodeHeader(name)
	if err != nil {
		return name
	}
	return decoded
}

// SanitizeFilename keeps letters, digits, space, '-', '_' and '.' only. The result is never
// empty and never a bare "." or ".." so it can always be joined to a directory safely.
func SanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' || r == '.' {
			b.WriteRune(r)
		}
	}

	safe := strings.TrimSpace(b.String())
	if runes := []rune(safe); len(runes) > maxFilenameRunes {
		safe = strings.TrimSpace(string(runes[len(runes)-maxFilenameRunes:]))
	}
	if strings.Trim(safe, ".") == "" {
		return fallbackFilename
	}
	return safe
}
