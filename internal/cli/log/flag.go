// Package log registers the logging flags shared by every crudgen command and
// builds the slog logger they describe.
package log

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
)

// Levels lists the accepted --loglevel values.
var Levels = []string{"warn", "debug", "info", "error"}

func RegisterLoggingFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("loglevel", Levels[0], "set the log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringP("logformat", "f", "text", "set the log format (text, json)")
}

// GetBaseLogger builds a logger writing to the command's error stream so log
// lines never mix with command output.
func GetBaseLogger(cmd *cobra.Command) (*slog.Logger, error) {
	logLevel, err := GetLoggerLevel(cmd)
	if err != nil {
		return nil, err
	}

	format := cmd.Flag("logformat").Value.String()
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
			Level: logLevel,
		})
	case "text":
		handler = slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
			Level: logLevel,
		})
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}

	return slog.New(handler), nil
}

func GetLoggerLevel(cmd *cobra.Command) (slog.Level, error) {
	logLevel, err := cmd.Flags().GetString("loglevel")
	if err != nil {
		return slog.LevelWarn, err
	}
	if !slices.Contains(Levels, logLevel) {
		return slog.LevelWarn, fmt.Errorf("invalid log level: %s", logLevel)
	}
	var level slog.Level
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}
	return level, nil
}
