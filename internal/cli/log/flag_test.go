package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func newCommand(args ...string) *cobra.Command {
	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	RegisterLoggingFlags(cmd)
	cmd.SetArgs(args)
	return cmd
}

func TestGetLoggerLevel(t *testing.T) {
	tests := []struct {
		args []string
		want slog.Level
		err  bool
	}{
		{args: nil, want: slog.LevelWarn},
		{args: []string{"--loglevel", "debug"}, want: slog.LevelDebug},
		{args: []string{"--loglevel", "info"}, want: slog.LevelInfo},
		{args: []string{"--loglevel", "error"}, want: slog.LevelError},
		{args: []string{"--loglevel", "trace"}, err: true},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			cmd := newCommand(tt.args...)
			if err := cmd.Execute(); err != nil {
				t.Fatalf("execute: %v", err)
			}
			got, err := GetLoggerLevel(cmd)
			if tt.err {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("level: %v", err)
			}
			if got != tt.want {
				t.Fatalf("level = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetBaseLoggerFormats(t *testing.T) {
	cmd := newCommand("--logformat", "json", "--loglevel", "info")
	var stderr bytes.Buffer
	cmd.SetErr(&stderr)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	logger, err := GetBaseLogger(cmd)
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	logger.Info("hello", slog.String("k", "v"))
	logger.Debug("hidden")
	out := stderr.String()
	if !strings.Contains(out, `"msg":"hello"`) || !strings.Contains(out, `"k":"v"`) {
		t.Fatalf("unexpected json output: %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line leaked at info level: %s", out)
	}

	bad := newCommand("--logformat", "xml")
	if err := bad.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if _, err := GetBaseLogger(bad); err == nil {
		t.Fatal("expected invalid format error")
	}
}
