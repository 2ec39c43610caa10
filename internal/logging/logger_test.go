package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestConsoleHandlerFormatsComponentPrefix(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, levelVar))

	NewComponentLogger(logger, "organizer").Info("rename applied",
		String(FieldPath, "/library/Author/Title"),
		Int64(FieldEntryID, 42),
	)

	line := buf.String()
	if !strings.Contains(line, "INFO organizer: rename applied") {
		t.Errorf("console line missing component prefix: %q", line)
	}
	if !strings.Contains(line, "entry_id=42") {
		t.Errorf("console line missing entry_id attribute: %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Errorf("component should be rendered as prefix, not attribute: %q", line)
	}
}

func TestConsoleHandlerQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, levelVar))

	logger.Warn("lookup failed", String("reason", "rate limit hit"))

	if !strings.Contains(buf.String(), `reason="rate limit hit"`) {
		t.Errorf("expected quoted value in %q", buf.String())
	}
}

func TestJSONHandlerFieldNames(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(newJSONHandler(&buf, levelVar))

	logger.Info("queued", Int("count", 3))

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal JSON log line: %v", err)
	}
	if payload["msg"] != "queued" {
		t.Errorf("msg = %v, want queued", payload["msg"])
	}
	if payload["level"] != "info" {
		t.Errorf("level = %v, want info", payload["level"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Error("ts field missing from JSON output")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
