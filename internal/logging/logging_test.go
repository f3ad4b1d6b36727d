package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewJSON(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log, err := New("warn", "json", &buf)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	log.Info().Msg("dropped")
	log.Warn().Str("reminder_id", "r1").Msg("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry["message"] != "kept" || entry["reminder_id"] != "r1" || entry["level"] != "warn" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	t.Parallel()
	if _, err := New("info", "xml", &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for unknown format")
	}
	if _, err := New("loud", "json", &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestCronLogger(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log, err := New("debug", "json", &buf)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	cl := Cron(log)
	cl.Info("wake", "now", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	cl.Error(errors.New("boom"), "panic", "stack", "trace")

	out := buf.String()
	for _, want := range []string{`"now":"2024-01-02T03:04:05Z"`, `"error":"boom"`, `"stack":"trace"`, `"level":"debug"`, `"level":"error"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %s:\n%s", want, out)
		}
	}
}
