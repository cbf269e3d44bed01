// Package logger provides the process-wide structured logger. The
// bridge logs key-value pairs (Infow/Warnw/Errorw) everywhere; the
// level comes from config and is fixed for the process lifetime.
package logger

import (
	"sync"
)

// Levels accepted in the log_level config key.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

var (
	global *Logger
	once   sync.Once
)

// Get returns the process logger. The level is applied on the first
// call only; later callers share the same instance.
func Get(level string) *Logger {
	once.Do(func() {
		global = newZapLogger(level)
	})
	return global
}
