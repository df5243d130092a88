// Package monitoring holds the diagnostic logger shared by the dataset
// pipeline. Skipped inputs, repairs and phase summaries are reported here so
// a run can be audited from its log alone.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Infof logs progress information.
func Infof(format string, v ...interface{}) {
	Logf(format, v...)
}

// Warnf logs a recoverable condition, such as a skipped input file.
func Warnf(format string, v ...interface{}) {
	Logf("WARN: "+format, v...)
}

// Errorf logs a condition that is about to abort the run.
func Errorf(format string, v ...interface{}) {
	Logf("ERROR: "+format, v...)
}
