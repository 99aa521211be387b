package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/samvad-hq/predictive-service-client/internal/config"
)

func TestZapLoggerWritesStructuredJSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := InitWriter(&config.Config{LogLevel: "info"}, &buf)
	if err != nil {
		t.Fatalf("InitWriter: %v", err)
	}

	log.DebugObj("hidden", "k", 1)
	log.InfoObj("query sent", "predictive_request", map[string]any{"object": "widget"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line at info level, got %d: %s", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["msg"] != "query sent" {
		t.Fatalf("unexpected msg %v", entry["msg"])
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("missing ts field")
	}
	req, ok := entry["predictive_request"].(map[string]any)
	if !ok || req["object"] != "widget" {
		t.Fatalf("unexpected object field %v", entry["predictive_request"])
	}
}

func TestParseLevel(t *testing.T) {
	if parseLevel("warning").String() != "warn" {
		t.Fatalf("warning should map to warn")
	}
	if parseLevel("bogus").String() != "info" {
		t.Fatalf("unknown level should default to info")
	}
}
