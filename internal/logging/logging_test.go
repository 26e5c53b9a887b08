package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"WARNING": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_JSONRedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info", "")
	logger.Info("gemini configured", "api_key", "AIza-secret", "model", "gemini-2.0-flash")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON line, got %q: %v", buf.String(), err)
	}
	if entry["api_key"] != "[redacted]" {
		t.Errorf("api_key not redacted: %v", entry["api_key"])
	}
	if entry["model"] != "gemini-2.0-flash" || entry["app"] != "seafreight-invoice" {
		t.Errorf("unexpected entry %v", entry)
	}
}

func TestNew_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn", "text")
	logger.Info("autosave scheduled")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered at warn, got %q", buf.String())
	}
	logger.Warn("stored invoice unusable")
	if !strings.Contains(buf.String(), "level=WARN") {
		t.Errorf("expected text output, got %q", buf.String())
	}
}

func TestNew_ErrorIncludesStack(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "", "").Error("autosave failed")
	if !strings.Contains(buf.String(), "stacktrace") {
		t.Errorf("expected stacktrace on error, got %q", buf.String())
	}
}
