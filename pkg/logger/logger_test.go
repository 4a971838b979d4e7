package logx

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Tests mutate the global logger and must not run in parallel.

func TestInitLevels(t *testing.T) {
	Init(Config{Debug: true})
	if got := log.Logger.GetLevel(); got != zerolog.DebugLevel {
		t.Fatalf("level = %v, want debug", got)
	}

	Init()
	if got := log.Logger.GetLevel(); got != zerolog.InfoLevel {
		t.Fatalf("level = %v, want info", got)
	}
}

func TestInitWritesJSONToWriter(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Writer: &buf})
	defer Init()

	log.Info().Str("conversation_id", "c1").Msg("hello")
	log.Debug().Msg("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["message"] != "hello" || entry["conversation_id"] != "c1" || entry["level"] != "info" {
		t.Fatalf("entry = %#v", entry)
	}
}

func TestSetOutputKeepsLevel(t *testing.T) {
	Init(Config{Debug: true})
	defer Init()

	var buf bytes.Buffer
	SetOutput(&buf)

	if got := log.Logger.GetLevel(); got != zerolog.DebugLevel {
		t.Fatalf("level = %v, want debug after SetOutput", got)
	}
	log.Debug().Msg("routed")
	if !strings.Contains(buf.String(), `"message":"routed"`) {
		t.Fatalf("output = %q, want debug line", buf.String())
	}
}

func TestResolveWriter(t *testing.T) {
	var buf bytes.Buffer
	tests := []struct {
		name string
		conf Config
		want any
	}{
		{"default", Config{}, os.Stdout},
		{"stderr", Config{Output: " STDERR "}, os.Stderr},
		{"unknown falls back", Config{Output: "file"}, os.Stdout},
		{"writer wins", Config{Output: OutputStderr, Writer: &buf}, &buf},
	}
	for _, tt := range tests {
		if got := resolveWriter(tt.conf); got != tt.want {
			t.Fatalf("%s: resolveWriter() = %v, want %v", tt.name, got, tt.want)
		}
	}
}
