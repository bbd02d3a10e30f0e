package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLogger_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "test", LevelWarn)

	l.Debug("hidden debug")
	l.Info("hidden info")
	l.Warn("shown warn", "path", "/a.jpg")
	l.Error("shown error")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("entries below warn should be dropped:\n%s", out)
	}
	if !strings.Contains(out, "[WARN] shown warn path=/a.jpg") {
		t.Errorf("missing warn entry:\n%s", out)
	}
	if !strings.Contains(out, "[ERROR] shown error") {
		t.Errorf("missing error entry:\n%s", out)
	}
}

func TestLogger_WithInheritsFields(t *testing.T) {
	var buf bytes.Buffer
	parent := New(&buf, "test", LevelDebug)
	child := parent.With("run", "abc")

	child.Info("stage done", "stage", "crop")
	parent.Info("no context")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "run=abc stage=crop") {
		t.Errorf("child line missing fields: %s", lines[0])
	}
	if strings.Contains(lines[1], "run=abc") {
		t.Errorf("parent must not inherit child fields: %s", lines[1])
	}
}

func TestLogger_OddKeyValuesIgnored(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "test", LevelDebug)
	l.Info("msg", "lonely")
	if strings.Contains(buf.String(), "lonely") {
		t.Errorf("dangling key should be dropped: %s", buf.String())
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	if l.Enabled(LevelError) {
		t.Error("Discard logger should not be enabled at any level")
	}
	l.Error("nothing")
}
