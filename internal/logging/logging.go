// Package logging constructs the slog logger shared by all harness
// components. There is no package-level logger; callers receive a
// *slog.Logger at wire time and pass it down.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Level names accepted on the CLI and in the config file.
const (
	LevelCritical = "CRITICAL"
	LevelDebug    = "DEBUG"
	LevelError    = "ERROR"
	LevelInfo     = "INFO"
	LevelNotSet   = "NOTSET"
	LevelWarning  = "WARNING"
)

// ParseLevel maps a level name to a slog.Level. Names are
// case-insensitive. CRITICAL maps above slog's error level; NOTSET
// enables everything.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToUpper(name) {
	case LevelCritical:
		return slog.LevelError + 4, nil
	case LevelDebug:
		return slog.LevelDebug, nil
	case LevelError:
		return slog.LevelError, nil
	case LevelInfo:
		return slog.LevelInfo, nil
	case LevelNotSet:
		return slog.LevelDebug - 4, nil
	case LevelWarning:
		return slog.LevelWarn, nil
	}
	return 0, fmt.Errorf("unknown log level %q (valid: CRITICAL, DEBUG, ERROR, INFO, NOTSET, WARNING)", name)
}

// New builds a logger writing text records to w. When disabled is true
// the logger swallows everything regardless of level.
func New(level string, disabled bool, w io.Writer) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	if disabled {
		w = io.Discard
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler), nil
}
