package models

import "time"

// Config represents the application configuration
type Config struct {
	Mail          MailConfig     `yaml:"mail"`
	Telegram      TelegramConfig `yaml:"telegram"`
	CheckInterval time.Duration  `yaml:"-"`
	RetryInterval time.Duration  `yaml:"-"`
	TempDir       string         `yaml:"tempDir"`
	HealthAddr    string         `yaml:"healthAddr"`
	Log           LogConfig      `yaml:"log"`
}

// MailConfig represents IMAP mailbox configuration
type MailConfig struct {
	Server   string        `yaml:"server"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	MailBox  string        `yaml:"mailbox"`
	Timeout  time.Duration `yaml:"-"`
}

// TelegramConfig represents the destination chat configuration
type TelegramConfig struct {
	BotToken string        `yaml:"botToken"`
	ChatID   string        `yaml:"chatId"`
	Timeout  time.Duration `yaml:"-"`
}

// LogConfig controls the logrus level and formatter
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}
