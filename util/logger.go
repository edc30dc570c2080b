// Package util provides low-level helpers shared by all other packages.
package util

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel controls output verbosity.
type LogLevel int

const (
	LogQuiet   LogLevel = 0
	LogNormal  LogLevel = 1
	LogVerbose LogLevel = 2
	LogDebug   LogLevel = 3
)

// Logger writes levelled messages to stderr, either as prefixed text
// lines or as JSON records.  The same Logger type serves every output
// strategy so the onboarding pipeline never branches on verbosity.
type Logger struct {
	level      LogLevel
	output     io.Writer
	mu         sync.Mutex
	timestamps bool // if true, prepend wall-clock timestamps

	structured *zap.Logger // non-nil selects JSON output
}

// NewLogger returns a Logger that prints messages at or below the given
// verbosity (0 = quiet, 1 = normal, 2 = verbose, 3 = debug).
func NewLogger(verbosity int) *Logger {
	return &Logger{
		level:      LogLevel(verbosity),
		output:     os.Stderr,
		timestamps: true,
	}
}

// NewStructuredLogger returns a Logger that emits one JSON object per
// message to w.  Verbosity filtering is identical to [NewLogger].
func NewStructuredLogger(verbosity int, w io.Writer) *Logger {
	l := &Logger{level: LogLevel(verbosity), output: w}
	l.structured = newZap(w)
	return l
}

func newZap(w io.Writer) *zap.Logger {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "ts"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(enc),
		zapcore.AddSync(w),
		zapcore.DebugLevel, // filtering happens in Logger
	)
	return zap.New(core)
}

// SetTimestamps enables or disables timestamp prefixes on text output.
func (l *Logger) SetTimestamps(on bool) { l.timestamps = on }

// SetOutput overrides the output writer (default: os.Stderr).
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = w
	if l.structured != nil {
		l.structured = newZap(w)
	}
}

// Level returns the current log level.
func (l *Logger) Level() LogLevel { return l.level }

// Structured reports whether the logger emits JSON.
func (l *Logger) Structured() bool { return l.structured != nil }

// Info prints when verbosity ≥ 1.  Prefixed with [INF].
func (l *Logger) Info(format string, args ...interface{}) {
	if l.level >= LogNormal {
		l.write("INF", format, args...)
	}
}

// Warn prints when verbosity ≥ 1.  Prefixed with [WRN].
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.level >= LogNormal {
		l.write("WRN", format, args...)
	}
}

// Verbose prints when verbosity ≥ 2.  Prefixed with [VRB].
func (l *Logger) Verbose(format string, args ...interface{}) {
	if l.level >= LogVerbose {
		l.write("VRB", format, args...)
	}
}

// Debug prints when verbosity ≥ 3.  Prefixed with [DBG].
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.level >= LogDebug {
		l.write("DBG", format, args...)
	}
}

// Error always prints regardless of verbosity.  Prefixed with [ERR].
func (l *Logger) Error(format string, args ...interface{}) {
	l.write("ERR", format, args...)
}

// Sync flushes buffered structured output.
func (l *Logger) Sync() {
	if l.structured != nil {
		_ = l.structured.Sync()
	}
}

func (l *Logger) write(level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	if l.structured != nil {
		switch level {
		case "ERR":
			l.structured.Error(msg)
		case "WRN":
			l.structured.Warn(msg)
		case "INF":
			l.structured.Info(msg)
		default:
			l.structured.Debug(msg, zap.String("detail", level))
		}
		return
	}

	if l.timestamps {
		ts := time.Now().Format("2006-01-02 15:04:05")
		fmt.Fprintf(l.output, "%s [%s] %s\n", ts, level, msg)
	} else {
		fmt.Fprintf(l.output, "[%s] %s\n", level, msg)
	}
}
