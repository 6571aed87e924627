// Package logging configures charmbracelet/log for mdconvert and carries
// loggers through contexts.
package logging

import (
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

//nolint:gochecknoglobals // process-wide default
var defaultLogger atomic.Pointer[log.Logger]

// New returns a stderr logger at level: debug, info, warn (or warning) or
// error. Anything else is info.
func New(level string) *log.Logger {
	return NewWithWriter(os.Stderr, level)
}

// NewWithWriter is New writing to w.
func NewWithWriter(w io.Writer, level string) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Prefix: "mdconvert",
		Level:  parseLevel(level),
	})
}

// NewInteractive returns an unprefixed info logger for messages addressed to
// the person running a command, such as "wrote .mdconvert.yml".
func NewInteractive() *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{Level: log.InfoLevel})
}

func parseLevel(level string) log.Level {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		level = "warn"
	}
	parsed, err := log.ParseLevel(level)
	if err != nil || parsed < log.DebugLevel || parsed > log.ErrorLevel {
		return log.InfoLevel
	}
	return parsed
}

// Default returns the process-wide logger, creating an info logger on first use.
func Default() *log.Logger {
	if logger := defaultLogger.Load(); logger != nil {
		return logger
	}
	defaultLogger.CompareAndSwap(nil, New("info"))
	return defaultLogger.Load()
}

func SetDefault(logger *log.Logger) {
	defaultLogger.Store(logger)
}

// SetLevel changes the level of the default logger in place.
func SetLevel(level string) {
	Default().SetLevel(parseLevel(level))
}
