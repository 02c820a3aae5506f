package telegram

import "context"

// Client delivers text and files to a chat
type Client interface {
	SendText(ctx context.Context, chatID, text string) error
	SendFile(ctx context.Context, chatID, path, caption string) error
}
