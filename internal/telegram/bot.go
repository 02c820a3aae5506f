package telegram

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"mail-telegram-bridge/internal/logging"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotClient sends messages through the Telegram Bot API
type BotClient struct {
	bot *tgbotapi.BotAPI
}

// NewBotClient authenticates the bot token against the default Telegram endpoint
func NewBotClient(token string, timeout time.Duration) (*BotClient, error) {
	return NewBotClientWithEndpoint(token, tgbotapi.APIEndpoint, timeout)
}

// NewBotClientWithEndpoint is NewBotClient against a custom endpoint such as a local Bot API server.
// The endpoint is a format string taking the token and the method name.
func NewBotClientWithEndpoint(token, endpoint string, timeout time.Duration) (*BotClient, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("telegram bot login: %w", err)
	}
	logging.Log.Infof("Authorized on Telegram as @%s", bot.Self.UserName)
	return &BotClient{bot: bot}, nil
}

// SendText posts a plain text message
func (c *BotClient) SendText(ctx context.Context, chatID, text string) error {
	chat, err := baseChat(chatID)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.MessageConfig{
		BaseChat:              chat,
		Text:                  text,
		DisableWebPagePreview: true,
	}
	if _, err := c.bot.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// SendFile uploads the file at path as a document
func (c *BotClient) SendFile(ctx context.Context, chatID, path, caption string) error {
	chat, err := baseChat(chatID)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	doc := tgbotapi.DocumentConfig{
		BaseFile: tgbotapi.BaseFile{
			BaseChat: chat,
			File:     tgbotapi.FileReader{Name: filepath.Base(path), Reader: f},
		},
		Caption: caption,
	}
	if _, err := c.bot.Send(doc); err != nil {
		return fmt.Errorf("send document: %w", err)
	}
	return nil
}

// baseChat accepts a numeric chat id or an @channel username
func baseChat(chatID string) (tgbotapi.BaseChat, error) {
	chatID = strings.TrimSpace(chatID)
	if strings.HasPrefix(chatID, "@") {
		return tgbotapi.BaseChat{ChannelUsername: chatID}, nil
	}
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return tgbotapi.BaseChat{}, fmt.Errorf("invalid chat id %q: expected a number or @channel", chatID)
	}
	return tgbotapi.BaseChat{ChatID: id}, nil
}
