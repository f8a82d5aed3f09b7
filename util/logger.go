// Package util provides low-level helpers shared by all other packages.
package util

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/hashicorp/go-hclog"
)

// LogLevel controls output verbosity.
type LogLevel int

const (
	LogQuiet   LogLevel = 0
	LogNormal  LogLevel = 1
	LogVerbose LogLevel = 2
	LogDebug   LogLevel = 3
)

// Logger writes levelled messages to stderr through hclog.  The
// printf-style methods map onto hclog levels: Error→ERROR, Warn→WARN,
// Info→INFO, Verbose→DEBUG, Debug→TRACE.
type Logger struct {
	name       string
	level      LogLevel
	output     io.Writer
	timestamps bool

	mu sync.Mutex
	hl hclog.Logger
}

// NewLogger returns a Logger that prints messages at or below the given
// verbosity (0 = quiet, 1 = normal, 2 = verbose, 3 = debug).
func NewLogger(verbosity int) *Logger {
	l := &Logger{
		name:       "ftpc",
		level:      LogLevel(verbosity),
		output:     os.Stderr,
		timestamps: verbosity >= 3, // auto-enable timestamps in debug mode
	}
	l.rebuild()
	return l
}

// Named returns a child logger whose messages carry the given
// sub-system name ("ftpc.client", "ftpc.tunnel", …).
func (l *Logger) Named(name string) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	c := &Logger{
		name:       l.name + "." + name,
		level:      l.level,
		output:     l.output,
		timestamps: l.timestamps,
	}
	c.rebuild()
	return c
}

// SetTimestamps enables or disables timestamp prefixes.
func (l *Logger) SetTimestamps(on bool) {
	l.mu.Lock()
	l.timestamps = on
	l.mu.Unlock()
	l.rebuild()
}

// SetOutput overrides the output writer (default: os.Stderr).
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	l.output = w
	l.mu.Unlock()
	l.rebuild()
}

// Level returns the current log level.
func (l *Logger) Level() LogLevel { return l.level }

// Info prints when verbosity ≥ 1.
func (l *Logger) Info(format string, args ...interface{}) {
	l.get().Info(fmt.Sprintf(format, args...))
}

// Warn prints when verbosity ≥ 1.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.get().Warn(fmt.Sprintf(format, args...))
}

// Verbose prints when verbosity ≥ 2.
func (l *Logger) Verbose(format string, args ...interface{}) {
	l.get().Debug(fmt.Sprintf(format, args...))
}

// Debug prints when verbosity ≥ 3.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.get().Trace(fmt.Sprintf(format, args...))
}

// Error always prints regardless of verbosity.
func (l *Logger) Error(format string, args ...interface{}) {
	l.get().Error(fmt.Sprintf(format, args...))
}

// Writer returns an io.Writer that logs each line at debug level.
// It is handed to the FTP library to trace the control connection.
func (l *Logger) Writer() io.Writer {
	return l.get().StandardWriter(&hclog.StandardLoggerOptions{ForceLevel: hclog.Trace})
}

func (l *Logger) get() hclog.Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hl
}

func (l *Logger) rebuild() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hl = hclog.New(&hclog.LoggerOptions{
		Name:        l.name,
		Level:       hclogLevel(l.level),
		Output:      l.output,
		DisableTime: !l.timestamps,
		TimeFormat:  "15:04:05.000",
	})
}

func hclogLevel(level LogLevel) hclog.Level {
	switch {
	case level <= LogQuiet:
		return hclog.Error
	case level == LogNormal:
		return hclog.Info
	case level == LogVerbose:
		return hclog.Debug
	default:
		return hclog.Trace
	}
}
