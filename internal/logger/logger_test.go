package logger

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug", "json")

	log.Info().Str("op", "login").Msg("hello")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["message"] != "hello" {
		t.Errorf("message = %v, want hello", entry["message"])
	}
	if entry["op"] != "login" {
		t.Errorf("op = %v, want login", entry["op"])
	}
	if entry["service"] != "quizboard" {
		t.Errorf("service = %v, want quizboard", entry["service"])
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn", "json")

	log.Info().Msg("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %q", buf.String())
	}

	log.Error().Msg("kept")
	if buf.Len() == 0 {
		t.Fatal("error should pass the warn level")
	}
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "verbose", "json")

	log.Debug().Msg("dropped")
	if buf.Len() != 0 {
		t.Fatalf("debug should be filtered at fallback info level, got %q", buf.String())
	}
	log.Info().Msg("kept")
	if buf.Len() == 0 {
		t.Fatal("info should be written at fallback level")
	}
}
