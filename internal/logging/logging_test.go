// logging_test.go — Tests for level parsing and both handler formats.
package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tc := range tests {
		if got := ParseLevel(tc.in); got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
	if ValidLevel("verbose") {
		t.Error("ValidLevel(verbose) = true")
	}
	if !ValidLevel("Debug") {
		t.Error("ValidLevel(Debug) = false")
	}
}

func TestTextHandler(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := New(&buf, Options{Level: "info", NoColor: true})

	logger.Debug("hidden")
	logger.With("correlation_id", "abc").Info("action finished", "status", "ok", "identifier", "Trip planning")
	logger.Warn("not found")
	logger.Error("boom")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug record written at info level")
	}
	for _, want := range []string{
		"INF action finished",
		" correlation_id=abc",
		" status=ok",
		` identifier="Trip planning"`,
		"WRN not found",
		"ERR boom",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("NoColor output contains escape codes")
	}
	if n := strings.Count(out, "\n"); n != 3 {
		t.Errorf("got %d lines, want 3", n)
	}
}

func TestTextHandlerGroups(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := New(&buf, Options{Level: "debug", NoColor: true})

	logger.WithGroup("req").Debug("scan", "index", 2, slog.Group("thread", "name", "a"))

	out := buf.String()
	for _, want := range []string{"DBG scan", " req.index=2", " req.thread.name=a"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestJSONHandler(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := New(&buf, Options{Level: "warn", Format: FormatJSON})

	logger.Info("skipped")
	logger.Warn("not found", "identifier", "x")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if rec["msg"] != "not found" || rec["level"] != "WARN" || rec["identifier"] != "x" {
		t.Errorf("record = %v", rec)
	}
}

func TestIsTerminal(t *testing.T) {
	t.Parallel()
	if IsTerminal(&bytes.Buffer{}) {
		t.Error("buffer reported as terminal")
	}
	f, err := os.CreateTemp(t.TempDir(), "log")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if IsTerminal(f) {
		t.Error("regular file reported as terminal")
	}
}
