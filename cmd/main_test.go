package main

import (
	"io"
	"path/filepath"
	"strings"
	"testing"
)

func TestRootCmd_ConfigErrorIsReturned(t *testing.T) {
	for _, key := range []string{"MAIL_USERNAME", "MAIL_PASSWORD", "MAIL_SERVER", "BOT_TOKEN", "CHAT_ID"} {
		t.Setenv(key, "")
	}

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "--once"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	err := cmd.Execute()
	if err == nil {
		t.Fatal("Expected configuration error")
	}
	if !strings.Contains(err.Error(), "reading configuration") || !strings.Contains(err.Error(), "MAIL_USERNAME is required") {
		t.Errorf("Unexpected error: %v", err)
	}
}
