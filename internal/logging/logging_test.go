package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(LevelInfo, FormatJSON, &buf)
	log.Debug("hidden")
	log.Info("compiled", "rules", 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if rec["msg"] != "compiled" {
		t.Errorf("msg = %v, want compiled", rec["msg"])
	}
	if rec["rules"] != float64(3) {
		t.Errorf("rules = %v, want 3", rec["rules"])
	}
}

func TestNewTextDebug(t *testing.T) {
	var buf bytes.Buffer
	log := New(LevelDebug, FormatText, &buf)
	log.Debug("fallback", "pattern", "a+")
	if !strings.Contains(buf.String(), "pattern=a+") {
		t.Errorf("text output missing attribute: %q", buf.String())
	}
}

func TestOrDiscard(t *testing.T) {
	if OrDiscard(nil) == nil {
		t.Fatal("OrDiscard(nil) returned nil")
	}
	l := Discard()
	if OrDiscard(l) != l {
		t.Error("OrDiscard should return the given logger")
	}
}
