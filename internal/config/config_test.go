package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var envKeys = []string{
	"MAIL_USERNAME", "MAIL_PASSWORD", "MAIL_SERVER", "MAIL_MAILBOX",
	"BOT_TOKEN", "CHAT_ID", "CHECK_INTERVAL", "RETRY_INTERVAL",
	"IMAP_TIMEOUT", "TELEGRAM_TIMEOUT", "TEMP_DIR", "HEALTH_ADDR",
	"LOG_LEVEL", "LOG_FORMAT",
}

// clearEnv unsets every key Load reads and restores them when the test ends
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestLoad_FromYAML(t *testing.T) {
	clearEnv(t)

	yamlContent := `mail:
  server: "imap.test.com"
  username: "test@example.com"
  password: "testpass"
  timeout: 10s
telegram:
  botToken: "123:abc"
  chatId: "-1001"
checkInterval: 120
retryInterval: 2m
log:
  level: debug
  format: text
`
	path := writeFile(t, "config.yaml", yamlContent)

	cfg, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Mail.Server != "imap.test.com:993" {
		t.Errorf("Expected server 'imap.test.com:993', got '%s'", cfg.Mail.Server)
	}
	if cfg.Mail.MailBox != "INBOX" {
		t.Errorf("Expected default mailbox INBOX, got '%s'", cfg.Mail.MailBox)
	}
	if cfg.Mail.Timeout != 10*time.Second {
		t.Errorf("Expected IMAP timeout 10s, got %v", cfg.Mail.Timeout)
	}
	if cfg.Telegram.Timeout != DefaultTelegramTimeout {
		t.Errorf("Expected default Telegram timeout, got %v", cfg.Telegram.Timeout)
	}
	if cfg.CheckInterval != 120*time.Second {
		t.Errorf("Expected checkInterval 120s, got %v", cfg.CheckInterval)
	}
	if cfg.RetryInterval != 2*time.Minute {
		t.Errorf("Expected retryInterval 2m, got %v", cfg.RetryInterval)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "text" {
		t.Errorf("Expected debug/text logging, got %s/%s", cfg.Log.Level, cfg.Log.Format)
	}
}

func TestLoad_EnvOnlyUsesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAIL_USERNAME", "user@example.com")
	t.Setenv("MAIL_PASSWORD", "secret")
	t.Setenv("MAIL_SERVER", "imap.example.com:143")
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("CHAT_ID", "@channel")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), filepath.Join(t.TempDir(), ".env"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Mail.Server != "imap.example.com:143" {
		t.Errorf("Expected explicit port to be kept, got '%s'", cfg.Mail.Server)
	}
	if cfg.CheckInterval != 300*time.Second {
		t.Errorf("Expected default CHECK_INTERVAL 300s, got %v", cfg.CheckInterval)
	}
	if cfg.RetryInterval != 60*time.Second {
		t.Errorf("Expected default RETRY_INTERVAL 60s, got %v", cfg.RetryInterval)
	}
	if cfg.Telegram.ChatID != "@channel" {
		t.Errorf("Expected chat id '@channel', got '%s'", cfg.Telegram.ChatID)
	}
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)

	yamlPath := writeFile(t, "config.yaml", `mail:
  server: "yaml.example.com"
  username: "yaml-user"
  password: "yaml-pass"
telegram:
  botToken: "yaml-token"
  chatId: "1"
checkInterval: 100
`)
	envPath := writeFile(t, ".env", "MAIL_USERNAME=dotenv-user\nCHECK_INTERVAL=200\n")
	t.Setenv("CHECK_INTERVAL", "400")

	cfg, err := Load(yamlPath, envPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Mail.Username != "dotenv-user" {
		t.Errorf("Expected .env to override YAML username, got '%s'", cfg.Mail.Username)
	}
	if cfg.Mail.Password != "yaml-pass" {
		t.Errorf("Expected YAML password to survive, got '%s'", cfg.Mail.Password)
	}
	if cfg.CheckInterval != 400*time.Second {
		t.Errorf("Expected process env to win over .env, got %v", cfg.CheckInterval)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAIL_USERNAME", "user@example.com")

	_, err := Load("", "")
	if err == nil {
		t.Fatal("Expected error for missing required settings")
	}

	for _, key := range []string{"MAIL_PASSWORD", "MAIL_SERVER", "BOT_TOKEN", "CHAT_ID"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("Expected error to mention %s, got: %v", key, err)
		}
	}
	if strings.Contains(err.Error(), "MAIL_USERNAME") {
		t.Errorf("Did not expect MAIL_USERNAME in error: %v", err)
	}
}

func TestLoad_InvalidInterval(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{name: "Not a number", value: "soon", want: "CHECK_INTERVAL"},
		{name: "Zero", value: "0", want: "CHECK_INTERVAL must be positive"},
		{name: "Negative", value: "-5", want: "CHECK_INTERVAL must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("MAIL_USERNAME", "u")
			t.Setenv("MAIL_PASSWORD", "p")
			t.Setenv("MAIL_SERVER", "imap.example.com")
			t.Setenv("BOT_TOKEN", "t")
			t.Setenv("CHAT_ID", "1")
			t.Setenv("CHECK_INTERVAL", tt.value)

			_, err := Load("", "")
			if err == nil {
				t.Fatal("Expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got: %v", tt.want, err)
			}
		})
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		raw     string
		want    time.Duration
		wantErr bool
	}{
		{raw: "300", want: 300 * time.Second},
		{raw: " 60 ", want: time.Minute},
		{raw: "1m30s", want: 90 * time.Second},
		{raw: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseDuration("KEY", tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseDuration() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}
