package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger provides levelled logging plus user-facing progress lines.
// Log records go through logrus; progress lines are printed as-is.
type Logger struct {
	entry   *logrus.Entry
	verbose bool
	out     io.Writer
}

// NewLogger creates a new logger with specified level and verbose mode
func NewLogger(level string, verbose bool) *Logger {
	base := logrus.New()
	base.SetOutput(os.Stderr)
	base.SetLevel(parseLogLevel(level))
	if strings.EqualFold(os.Getenv("CAPTURE_OCR_LOG_FORMAT"), "json") {
		base.SetFormatter(&logrus.JSONFormatter{})
	} else {
		base.SetFormatter(&logrus.TextFormatter{DisableTimestamp: !verbose, FullTimestamp: true})
	}

	return &Logger{
		entry:   logrus.NewEntry(base),
		verbose: verbose,
		out:     os.Stdout,
	}
}

// NewTestLogger returns a logger that discards everything; handy in tests
func NewTestLogger() *Logger {
	base := logrus.New()
	base.SetOutput(io.Discard)
	base.SetLevel(logrus.DebugLevel)
	return &Logger{entry: logrus.NewEntry(base), out: io.Discard}
}

// WithField returns a logger that attaches key=value to every record
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{
		entry:   l.entry.WithField(key, value),
		verbose: l.verbose,
		out:     l.out,
	}
}

// Debug logs debug information (only in debug mode)
func (l *Logger) Debug(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

// Info logs informational messages (only in verbose mode)
func (l *Logger) Info(format string, args ...interface{}) {
	if l.verbose {
		l.entry.Infof(format, args...)
	}
}

// Warn logs warning messages
func (l *Logger) Warn(format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}

// ProgressAlways logs critical progress information that should always be shown
func (l *Logger) ProgressAlways(emoji, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	fmt.Fprintf(l.out, "%s %s\n", emoji, message)
}

// Progress logs detailed progress information (only in verbose mode)
func (l *Logger) Progress(emoji, format string, args ...interface{}) {
	if l.verbose {
		message := fmt.Sprintf(format, args...)
		fmt.Fprintf(l.out, "%s %s\n", emoji, message)
	}
}

// IsVerbose reports whether progress details are printed
func (l *Logger) IsVerbose() bool {
	return l.verbose
}

// parseLogLevel converts string level to a logrus level
func parseLogLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// DefaultLogger returns a default logger instance
func DefaultLogger() *Logger {
	return NewLogger("info", false)
}

// Fatal logs a fatal error and exits the program
func (l *Logger) Fatal(format string, args ...interface{}) {
	l.entry.Fatalf(format, args...)
}
