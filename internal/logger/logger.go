// Package logger provides the process-wide structured logger.
//
// Package-level helpers take a message followed by alternating key/value
// pairs, the same shape hclog uses:
//
//	logger.Info("film created", "film_id", film.ID, "admin_id", adminID)
package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
)

var (
	mu   sync.RWMutex
	root hclog.Logger = newRoot("info", "text", os.Stderr)
)

func newRoot(level, format string, out io.Writer) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:            "streamflow",
		Level:           ParseLevel(level),
		Output:          out,
		JSONFormat:      strings.EqualFold(format, "json"),
		IncludeLocation: false,
		TimeFormat:      "2006-01-02T15:04:05.000Z07:00",
	})
}

// Configure replaces the root logger. format is "json" or "text".
func Configure(level, format string) {
	ConfigureOutput(level, format, os.Stderr)
}

// ConfigureOutput is Configure with an explicit writer, used by tests.
func ConfigureOutput(level, format string, out io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	root = newRoot(level, format, out)
}

// SetLevel changes the level of the root logger in place.
func SetLevel(level string) {
	mu.RLock()
	defer mu.RUnlock()
	root.SetLevel(ParseLevel(level))
}

// ParseLevel maps a config string to an hclog level, defaulting to info.
func ParseLevel(level string) hclog.Level {
	l := hclog.LevelFromString(strings.ToLower(strings.TrimSpace(level)))
	if l == hclog.NoLevel {
		return hclog.Info
	}
	return l
}

// Get returns the root logger.
func Get() hclog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root
}

// Named returns a sub-logger for a component.
func Named(name string) hclog.Logger {
	return Get().Named(name)
}

// Info logs informational messages
func Info(msg string, args ...interface{}) {
	Get().Info(msg, args...)
}

// Warn logs warning messages
func Warn(msg string, args ...interface{}) {
	Get().Warn(msg, args...)
}

// Error logs error messages
func Error(msg string, args ...interface{}) {
	Get().Error(msg, args...)
}

// Debug logs debug messages
func Debug(msg string, args ...interface{}) {
	Get().Debug(msg, args...)
}
