package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"mail-telegram-bridge/internal/models"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

const (
	DefaultCheckInterval   = 300 * time.Second
	DefaultRetryInterval   = 60 * time.Second
	DefaultIMAPTimeout     = 30 * time.Second
	DefaultTelegramTimeout = 60 * time.Second
	DefaultMailBox         = "INBOX"
	defaultIMAPPort        = "993"
)

// durationFields holds the YAML keys that accept either plain seconds or a Go duration string
type durationFields struct {
	CheckInterval string `yaml:"checkInterval"`
	RetryInterval string `yaml:"retryInterval"`
	Mail          struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"mail"`
	Telegram struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"telegram"`
}

// Load builds the configuration from defaults, the optional YAML file at configPath, the optional
// dotenv file at envFile and finally the process environment, then validates it.
func Load(configPath, envFile string) (*models.Config, error) {
	cfg := defaults()

	if configPath != "" {
		if err := loadFile(configPath, cfg); err != nil {
			return nil, err
		}
	}

	if envFile != "" {
		// godotenv never overrides variables that are already set
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading env file %s: %w", envFile, err)
		}
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	cfg.Mail.Server = withDefaultPort(cfg.Mail.Server)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *models.Config {
	return &models.Config{
		Mail: models.MailConfig{
			MailBox: DefaultMailBox,
			Timeout: DefaultIMAPTimeout,
		},
		Telegram: models.TelegramConfig{
			Timeout: DefaultTelegramTimeout,
		},
		CheckInterval: DefaultCheckInterval,
		RetryInterval: DefaultRetryInterval,
		Log: models.LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func loadFile(path string, cfg *models.Config) error {
	configFile, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	if err := yaml.Unmarshal(configFile, cfg); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}

	var d durationFields
	if err := yaml.Unmarshal(configFile, &d); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}

	fields := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"checkInterval", d.CheckInterval, &cfg.CheckInterval},
		{"retryInterval", d.RetryInterval, &cfg.RetryInterval},
		{"mail.timeout", d.Mail.Timeout, &cfg.Mail.Timeout},
		{"telegram.timeout", d.Telegram.Timeout, &cfg.Telegram.Timeout},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		v, err := parseDuration(f.key, f.raw)
		if err != nil {
			return err
		}
		*f.dst = v
	}
	return nil
}

func applyEnv(cfg *models.Config, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"MAIL_USERNAME": &cfg.Mail.Username,
		"MAIL_PASSWORD": &cfg.Mail.Password,
		"MAIL_SERVER":   &cfg.Mail.Server,
		"MAIL_MAILBOX":  &cfg.Mail.MailBox,
		"BOT_TOKEN":     &cfg.Telegram.BotToken,
		"CHAT_ID":       &cfg.Telegram.ChatID,
		"TEMP_DIR":      &cfg.TempDir,
		"HEALTH_ADDR":   &cfg.HealthAddr,
		"LOG_LEVEL":     &cfg.Log.Level,
		"LOG_FORMAT":    &cfg.Log.Format,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}

	durations := map[string]*time.Duration{
		"CHECK_INTERVAL":   &cfg.CheckInterval,
		"RETRY_INTERVAL":   &cfg.RetryInterval,
		"IMAP_TIMEOUT":     &cfg.Mail.Timeout,
		"TELEGRAM_TIMEOUT": &cfg.Telegram.Timeout,
	}
	for key, dst := range durations {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		d, err := parseDuration(key, v)
		if err != nil {
			return err
		}
		*dst = d
	}
	return nil
}

// parseDuration accepts an integer number of seconds or a Go duration string such as "5m"
func parseDuration(key, raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: expected seconds or duration, got %q", key, raw)
	}
	return d, nil
}

func withDefaultPort(server string) string {
	if server == "" {
		return server
	}
	if _, _, err := net.SplitHostPort(server); err == nil {
		return server
	}
	return net.JoinHostPort(server, defaultIMAPPort)
}

// Validate reports every missing or invalid setting at once
func Validate(cfg *models.Config) error {
	var errs []error

	required := []struct {
		key   string
		value string
	}{
		{"MAIL_USERNAME", cfg.Mail.Username},
		{"MAIL_PASSWORD", cfg.Mail.Password},
		{"MAIL_SERVER", cfg.Mail.Server},
		{"BOT_TOKEN", cfg.Telegram.BotToken},
		{"CHAT_ID", cfg.Telegram.ChatID},
	}
	for _, r := range required {
		if r.value == "" {
			errs = append(errs, fmt.Errorf("%s is required", r.key))
		}
	}

	positive := []struct {
		key   string
		value time.Duration
	}{
		{"CHECK_INTERVAL", cfg.CheckInterval},
		{"RETRY_INTERVAL", cfg.RetryInterval},
		{"IMAP_TIMEOUT", cfg.Mail.Timeout},
		{"TELEGRAM_TIMEOUT", cfg.Telegram.Timeout},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", p.key))
		}
	}

	if cfg.Mail.MailBox == "" {
		errs = append(errs, errors.New("MAIL_MAILBOX must not be empty"))
	}
	if _, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or text, got %q", cfg.Log.Format))
	}

	return errors.Join(errs...)
}
