package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestNewJSONLoggerTagsService(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSONLogger(&buf, "chatbot-api", "info")

	log.Info("answer served", slog.String("mode", "direct"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode log record: %v", err)
	}
	if record["service"] != "chatbot-api" {
		t.Fatalf("missing service attribute: %v", record)
	}
	if record["mode"] != "direct" {
		t.Fatalf("missing record attribute: %v", record)
	}
}

func TestNewJSONLoggerSuppressesBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSONLogger(&buf, "chatbot-api", "warn")

	log.Info("quiet")
	if buf.Len() != 0 {
		t.Fatalf("info record must be suppressed at warn level: %s", buf.String())
	}

	log.Warn("loud")
	if buf.Len() == 0 {
		t.Fatalf("warn record must be emitted at warn level")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for input, want := range cases {
		if got := parseLevel(input); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}
