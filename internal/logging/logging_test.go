package logging

import (
	"strings"
	"testing"
)

func TestNewLogger_Levels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "warning", "error", "unknown", ""} {
		if logger := NewLogger(level); logger == nil {
			t.Errorf("NewLogger(%q) = nil", level)
		}
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"", "****"},
		{"short", "****"},
		{"12345678", "****"},
		{"abcdefghijklmnop", "abcd...mnop"},
	}
	for _, tt := range tests {
		if got := SanitizeToken(tt.token); got != tt.want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", tt.token, got, tt.want)
		}
	}
}

func TestSanitizePath(t *testing.T) {
	if got := SanitizePath("/var/log/storycut.log"); got != "/var/log/storycut.log" {
		t.Errorf("SanitizePath() = %q, non-home paths must pass through", got)
	}
}

func TestWithAttributes(t *testing.T) {
	logger := NewLogger("error")

	if got := WithRequestID(logger, "req1"); got == nil {
		t.Error("WithRequestID() = nil")
	}
	if got := WithComponent(logger, "export"); got == nil {
		t.Error("WithComponent() = nil")
	}
	if got := WithExportID(logger, "e1"); got == nil {
		t.Error("WithExportID() = nil")
	}
	if got := WithSceneID(logger, "s1"); got == nil {
		t.Error("WithSceneID() = nil")
	}
}

func TestSanitizeToken_NeverLeaksMiddle(t *testing.T) {
	token := "secret-token-value-here"
	got := SanitizeToken(token)
	if strings.Contains(got, "token-value") {
		t.Errorf("SanitizeToken() = %q leaks middle of token", got)
	}
}
