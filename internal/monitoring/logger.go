package monitoring

import (
	"log"
	"sync/atomic"
)

// Logf is the package-level diagnostic logger for the Lund-plane engine. It
// defaults to log.Printf but may be replaced by SetLogger. Tests mute it with
// SetLogger(nil).
var Logf func(format string, v ...interface{}) = log.Printf

var debugEnabled atomic.Bool

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// SetDebug turns per-jet debug messages on or off. Off by default.
func SetDebug(enabled bool) {
	debugEnabled.Store(enabled)
}

// Debugf logs through Logf only when debug output is enabled.
func Debugf(format string, v ...interface{}) {
	if debugEnabled.Load() {
		Logf(format, v...)
	}
}
