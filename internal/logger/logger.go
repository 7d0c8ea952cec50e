// Package logger provides the process-wide structured logger.
package logger

import (
	"os"
	"sync"

	"github.com/hashicorp/go-hclog"
)

var (
	mu  sync.RWMutex
	log = hclog.New(&hclog.LoggerOptions{
		Name:   "mediavault",
		Level:  hclog.Info,
		Output: os.Stderr,
	})
)

// Configure replaces the default logger with one using the given level.
// Unknown level strings fall back to info.
func Configure(level string) {
	mu.Lock()
	defer mu.Unlock()
	log = hclog.New(&hclog.LoggerOptions{
		Name:   "mediavault",
		Level:  hclog.LevelFromString(level),
		Output: os.Stderr,
	})
}

// Named returns a sub-logger for a component.
func Named(name string) hclog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log.Named(name)
}

// Debug logs debug messages with optional key/value pairs
func Debug(msg string, args ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	log.Debug(msg, args...)
}

// Info logs informational messages with optional key/value pairs
func Info(msg string, args ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	log.Info(msg, args...)
}

// Warn logs warning messages with optional key/value pairs
func Warn(msg string, args ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	log.Warn(msg, args...)
}

// Error logs error messages with optional key/value pairs
func Error(msg string, args ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	log.Error(msg, args...)
}
