package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog.Logger so the bot's packages share one logging shape.
type Logger struct {
	*slog.Logger
}

// New builds a JSON logger writing to stdout at the given level. The level
// string is parsed the way slog does ("debug", "info", "warn", "error",
// case-insensitive); anything unparsable falls back to info.
func New(level string) *Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		l = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: l})
	return &Logger{Logger: slog.New(handler)}
}

// Default returns an info-level logger.
func Default() *Logger {
	return New("info")
}

// Named returns a child logger tagged with the component emitting it.
func (l *Logger) Named(component string) *Logger {
	return &Logger{Logger: l.Logger.With("component", component)}
}
