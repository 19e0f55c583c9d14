package logging

import (
	"context"
	"log/slog"
	"strings"
)

// Writer is an io.Writer that forwards each written chunk to slog as one
// record. The HTTP server's error log goes through it.
type Writer struct {
	logger *slog.Logger
	level  slog.Level
	msg    string
}

// NewWriter constructs a Writer logging msg at level.
func NewWriter(logger *slog.Logger, level Level, msg string) *Writer {
	if msg == "" {
		msg = "output"
	}
	return &Writer{logger: logger, level: slog.Level(level), msg: msg}
}

// Write logs the given bytes as a single line.
func (w *Writer) Write(p []byte) (int, error) {
	if w.logger != nil {
		line := strings.TrimRight(string(p), "\n")
		if line != "" {
			w.logger.Log(context.Background(), w.level, w.msg, "line", line)
		}
	}
	return len(p), nil
}
