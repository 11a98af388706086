// Package logx is a thin wrapper over the standard logger, kept deliberately
// small: a level prefix per line and nothing more. Only the cmd/axbench
// tool prints with fmt.Printf instead.
package logx

import (
	"log"
	"os"
)

var std = log.New(os.Stderr, "", log.LstdFlags)

// Warnf logs a warning line prefixed the same way the ETW consumer's
// fallback-mode notices are written.
func Warnf(format string, args ...interface{}) {
	std.Printf("warn: "+format, args...)
}

// Infof logs an informational line.
func Infof(format string, args ...interface{}) {
	std.Printf("info: "+format, args...)
}

// Errorf logs an error line. It never exits the process; every caller in
// this codebase recovers locally and keeps serving requests.
func Errorf(format string, args ...interface{}) {
	std.Printf("error: "+format, args...)
}
