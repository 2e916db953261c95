package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestForFormat(t *testing.T) {
	t.Parallel()

	cases := []struct {
		format string
		want   string
	}{
		{"json", `"level":"WARN"`},
		{"text", "level=WARN"},
		{"pretty", "WARN "},
		{"bogus", "WARN "},
	}
	for _, tc := range cases {
		var buf bytes.Buffer
		ForFormat(&buf, tc.format, slog.LevelInfo).Warn("table overrun", "offset", 16)
		out := buf.String()
		if !strings.Contains(out, tc.want) {
			t.Fatalf("%s: expected %q in output, got: %s", tc.format, tc.want, out)
		}
		if !strings.Contains(out, "table overrun") {
			t.Fatalf("%s: message missing, got: %s", tc.format, out)
		}
	}
}

func TestJSONLevelFiltering(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := JSON(&buf, slog.LevelWarn)
	log.Info("should not appear")
	log.Debug("also should not appear")

	if buf.Len() > 0 {
		t.Fatalf("expected no output for info/debug at warn level, got: %s", buf.String())
	}

	log.Warn("should appear")
	if !strings.Contains(buf.String(), "should appear") {
		t.Fatalf("expected warn message in output, got: %s", buf.String())
	}
}

func TestDiscard(t *testing.T) {
	t.Parallel()
	log := Discard().With("decoder", "ps2")
	log.Error("dropped")
	log.WithGroup("g").Warn("dropped")
}

func TestPrettyPlainWhenNotTerminal(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	Pretty(&buf, slog.LevelInfo).Info("decoded model package", "uid", 42)

	out := buf.String()
	if strings.Contains(out, "\033[") {
		t.Fatalf("expected no ANSI codes for a non-terminal writer, got: %q", out)
	}
	if !strings.Contains(out, "uid=42") {
		t.Fatalf("expected 'uid=42' in output, got: %s", out)
	}
}

func TestWith(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := JSON(&buf, slog.LevelInfo)
	log.With("decoder", "xbox").Info("child message")

	output := buf.String()
	if !strings.Contains(output, `"decoder":"xbox"`) {
		t.Fatalf("expected decoder=xbox in output, got: %s", output)
	}
}

func TestFromContextDefault(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	log := FromContext(ctx)
	if log == nil {
		t.Fatal("FromContext with no logger returned nil")
	}
	log.Info("from context")
}

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	ctx := WithContext(context.Background(), JSON(&buf, slog.LevelInfo))

	FromContext(ctx).Info("roundtrip test")
	if !strings.Contains(buf.String(), "roundtrip test") {
		t.Fatalf("expected message via context logger, got: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"Warning": slog.LevelWarn,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q): got %v want %v", in, got, want)
		}
	}
}

func TestPrettyHandlerEnabled(t *testing.T) {
	t.Parallel()
	h := NewPrettyHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn})

	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("expected info to be disabled at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("expected error to be enabled at warn level")
	}
}

func TestPrettyHandlerAttrsAndGroups(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		build func(h *PrettyHandler) slog.Handler
		args  []any
		want  string
	}{
		{"attrs", func(h *PrettyHandler) slog.Handler {
			return h.WithAttrs([]slog.Attr{slog.String("decoder", "wii")})
		}, nil, "decoder=wii"},
		{"group", func(h *PrettyHandler) slog.Handler {
			return h.WithGroup("vif")
		}, []any{"cmd", "STCYCL"}, "vif.cmd=STCYCL"},
		{"nested", func(h *PrettyHandler) slog.Handler {
			return h.WithGroup("a").WithGroup("b")
		}, []any{"key", "val"}, "a.b.key=val"},
		{"quoted", func(h *PrettyHandler) slog.Handler {
			return h
		}, []any{"path", "a b"}, `path="a b"`},
	}
	for _, tc := range cases {
		var buf bytes.Buffer
		slog.New(tc.build(NewPrettyHandler(&buf, nil))).Info("msg", tc.args...)
		if !strings.Contains(buf.String(), tc.want) {
			t.Fatalf("%s: expected %q in output, got: %s", tc.name, tc.want, buf.String())
		}
	}
}

func TestPrettyHandlerGroupAttrAndEmpty(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	slog.New(NewPrettyHandler(&buf, nil)).Info("msg",
		slog.Group("texture", slog.Int("w", 64), slog.Int("h", 32)),
		slog.Attr{},
	)
	out := buf.String()
	if !strings.Contains(out, "texture.w=64 texture.h=32") {
		t.Fatalf("expected flattened group, got: %s", out)
	}
	if strings.Contains(out, " =") {
		t.Fatalf("empty attr should be dropped, got: %q", out)
	}
}

func TestPrettyHandlerEmptyGroup(t *testing.T) {
	t.Parallel()
	h := NewPrettyHandler(&bytes.Buffer{}, nil)
	if h.WithGroup("") != h {
		t.Fatal("WithGroup empty string should return same handler")
	}
}

func TestNeedsQuoting(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"simple":          false,
		"has space":       true,
		"has\ttab":        true,
		`has"quote`:       true,
		"":                false,
		"k=v":             true,
		"0x00000002/GMC2": false,
	}
	for in, want := range tests {
		if got := needsQuoting(in); got != want {
			t.Errorf("needsQuoting(%q): got %v want %v", in, got, want)
		}
	}
}
