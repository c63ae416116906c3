package config

import (
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// SetupLogger creates the process logger: text to stdout, plus JSON lines to
// file when one is configured. Returns the logger and a cleanup function to
// close the file.
func SetupLogger(debug bool, file string) (*slog.Logger, func() error) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	stdoutHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	if file == "" {
		return slog.New(stdoutHandler), func() error { return nil }
	}

	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logger := slog.New(stdoutHandler)
		logger.Error("failed to open log file, using stdout only", "error", err, "file", file)
		return logger, func() error { return nil }
	}

	fileHandler := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level})
	return slog.New(slogmulti.Fanout(stdoutHandler, fileHandler)), f.Close
}

// SetupLoggerWithWriters builds the same fan-out over arbitrary writers.
func SetupLoggerWithWriters(text, jsonOut io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slogmulti.Fanout(
		slog.NewTextHandler(text, &slog.HandlerOptions{Level: level}),
		slog.NewJSONHandler(jsonOut, &slog.HandlerOptions{Level: level}),
	))
}
