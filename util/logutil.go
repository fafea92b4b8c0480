package util

import (
	"log/slog"
	"os"
	"strings"
)

// InitSlog installs a text handler on stderr when LOG_LEVEL is set.
func InitSlog() {
	value, ok := os.LookupEnv("LOG_LEVEL")
	if !ok {
		return
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: ParseLogLevel(value)})
	slog.SetDefault(slog.New(handler))
}

// ParseLogLevel accepts the level names of slog ("debug", "WARN", "info+2").
// Anything else is info.
func ParseLogLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}
