// Package logging builds the structured loggers used by the viewrender
// command: colorized terminal output, plus the systemd journal when the
// process runs as a service.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	slogmulti "github.com/samber/slog-multi"
	slogjournal "github.com/systemd/slog-journal"
)

// Level represents a structured log level.
type Level slog.Level

const (
	LevelDebug Level = Level(slog.LevelDebug)
	LevelInfo  Level = Level(slog.LevelInfo)
	LevelWarn  Level = Level(slog.LevelWarn)
	LevelError Level = Level(slog.LevelError)
)

// ParseLevel converts a textual log level into a Level value. Unknown values
// map to info.
func ParseLevel(value string) Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Options tunes NewLogger.
type Options struct {
	// Journal forces the journal handler on or off. Nil detects a systemd
	// service from the process cgroup.
	Journal *bool
	// NoColor disables ANSI colors in terminal output.
	NoColor bool
}

// NewLogger constructs a slog.Logger writing tint formatted records to w. When
// running under systemd the records go to the journal instead.
func NewLogger(w io.Writer, level Level, opts ...Options) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}

	journal := isSystemdService()
	if o.Journal != nil {
		journal = *o.Journal
	}

	terminal := tint.NewHandler(w, &tint.Options{
		Level:      slog.Level(level),
		TimeFormat: time.Kitchen,
		NoColor:    o.NoColor,
	})
	if !journal {
		return slog.New(terminal)
	}

	journalHandler, err := slogjournal.NewHandler(&slogjournal.Options{
		Level: slog.Level(level),
		ReplaceGroup: func(key string) string {
			return toJournalKey(key)
		},
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			a.Key = toJournalKey(a.Key)
			return a
		},
	})
	if err != nil {
		record := slog.NewRecord(time.Now(), slog.LevelWarn, "systemd journal unavailable", 0)
		record.Add("error", err)
		_ = terminal.Handle(context.Background(), record)
		return slog.New(terminal)
	}

	return slog.New(slogmulti.Fanout(terminal, journalHandler))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func toJournalKey(str string) string {
	str = strings.ToUpper(str)
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, str)
}

func isSystemdService() bool {
	content, err := os.ReadFile("/proc/self/cgroup")
	if err != nil {
		return false
	}
	parts := strings.Split(strings.TrimSpace(string(content)), ":")
	if len(parts) < 3 {
		return false
	}
	return strings.HasSuffix(path.Dir(parts[2]), ".service")
}
