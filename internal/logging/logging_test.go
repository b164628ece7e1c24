package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, ParseLevel(tt.in)); diff != "" {
				t.Errorf("ParseLevel mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestContextAttributes(t *testing.T) {
	var buf bytes.Buffer
	log := New("info", "text", &buf)

	ctx := Ctx(context.Background(), slog.String("cycle_id", "c-1"))
	ctx = Ctx(ctx, slog.String("source", "kitco"))
	log.With("component", "test").InfoContext(ctx, "hello")

	out := buf.String()
	for _, want := range []string{"cycle_id=c-1", "source=kitco", "component=test", "msg=hello"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New("warn", "json", &buf)

	log.Info("dropped")
	log.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("info record should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, `"msg":"kept"`) {
		t.Errorf("expected json warn record, got %q", out)
	}
}
