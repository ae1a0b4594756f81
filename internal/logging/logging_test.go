package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	for raw, expected := range map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"DEBUG":   zerolog.DebugLevel,
		" info ":  zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
	} {
		lvl, ok := ParseLevel(raw)
		if !ok || lvl != expected {
			t.Fatalf("unexpected level for %q: %v, %v", raw, lvl, ok)
		}
	}

	for _, raw := range []string{"", "loud"} {
		if _, ok := ParseLevel(raw); ok {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
}

func TestNew(t *testing.T) {
	t.Setenv(EnvLogLevel, "")

	var buf bytes.Buffer
	logger := New("resp3cat", "warn", &buf)

	logger.Info().Msg("hidden")
	logger.Warn().Str("addr", "127.0.0.1:6379").Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info message logged at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "resp3cat") || !strings.Contains(out, "127.0.0.1:6379") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestNewEnvOverride(t *testing.T) {
	t.Setenv(EnvLogLevel, "debug")

	var buf bytes.Buffer
	logger := New("resp3cat", "error", &buf)
	if logger.GetLevel() != zerolog.DebugLevel {
		t.Fatalf("unexpected level: %v", logger.GetLevel())
	}

	logger = New("resp3cat", "bogus", &buf)
	if logger.GetLevel() != zerolog.DebugLevel {
		t.Fatalf("unexpected level: %v", logger.GetLevel())
	}

	t.Setenv(EnvLogLevel, "")
	logger = New("resp3cat", "bogus", &buf)
	if logger.GetLevel() != zerolog.InfoLevel {
		t.Fatalf("unexpected level: %v", logger.GetLevel())
	}
}
