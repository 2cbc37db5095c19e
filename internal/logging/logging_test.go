package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "json", "warn", false)

	log.Info().Msg("hidden")
	log.Warn().Str("file", "inv.xlsx").Msg("stale data")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line at warn level, got %d: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry["file"] != "inv.xlsx" || entry["message"] != "stale data" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestNewTextFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "text", "bogus", false)

	log.Debug().Msg("debug line")
	log.Info().Msg("info line")

	out := buf.String()
	if strings.Contains(out, "debug line") {
		t.Error("debug should be filtered at the default level")
	}
	if !strings.Contains(out, "info line") {
		t.Errorf("expected info line, got %q", out)
	}
}
