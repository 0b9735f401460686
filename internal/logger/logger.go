package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// VerboseChecker interface for checking verbose state
type VerboseChecker interface {
	IsVerbose() bool
}

// Logger provides structured logging with verbose support
type Logger struct {
	component      string
	verboseChecker VerboseChecker
	writer         io.Writer
	zlog           zerolog.Logger
}

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value interface{}
}

// New creates a new logger instance writing to stderr
func New(component string, verboseChecker VerboseChecker) *Logger {
	return newLogger(component, verboseChecker, os.Stderr)
}

// NewWithCallback creates a new logger instance with a callback function
func NewWithCallback(component string, verboseCheck func() bool) *Logger {
	return newLogger(component, &callbackChecker{callback: verboseCheck}, os.Stderr)
}

// NewWithWriter creates a logger that writes to w instead of stderr
func NewWithWriter(component string, verboseChecker VerboseChecker, w io.Writer) *Logger {
	return newLogger(component, verboseChecker, w)
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return newLogger("", nil, io.Discard)
}

func newLogger(component string, verboseChecker VerboseChecker, w io.Writer) *Logger {
	if component == "" {
		component = "main"
	}
	return &Logger{
		component:      component,
		verboseChecker: verboseChecker,
		writer:         w,
		zlog:           buildZerolog(w, component),
	}
}

func buildZerolog(w io.Writer, component string) zerolog.Logger {
	out := w
	if w != io.Discard {
		out = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: "15:04:05.000",
			NoColor:    !isTerminal(w),
		}
	}
	return zerolog.New(out).With().Timestamp().Str("component", component).Logger()
}

// isTerminal is a cheap check; files and buffers get plain output
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// WithComponent creates a logger with a specific component name
func (l *Logger) WithComponent(component string) *Logger {
	return newLogger(component, l.verboseChecker, l.writer)
}

// SetOutput redirects the logger, e.g. to a file while the TUI owns the screen
func (l *Logger) SetOutput(w io.Writer) {
	l.writer = w
	l.zlog = buildZerolog(w, l.component)
}

// callbackChecker implements VerboseChecker with a callback function
type callbackChecker struct {
	callback func() bool
}

func (c *callbackChecker) IsVerbose() bool {
	if c.callback == nil {
		return false
	}
	return c.callback()
}

func (l *Logger) verbose() bool {
	return l.verboseChecker != nil && l.verboseChecker.IsVerbose()
}

// Debug logs debug messages (only when verbose=true)
func (l *Logger) Debug(msg string, args ...interface{}) {
	if l.verbose() {
		l.zlog.Debug().Msgf(msg, args...)
	}
}

// Info logs informational messages (only when verbose=true)
func (l *Logger) Info(msg string, args ...interface{}) {
	if l.verbose() {
		l.zlog.Info().Msgf(msg, args...)
	}
}

// Warn logs warning messages (always shown)
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.zlog.Warn().Msgf(msg, args...)
}

// Error logs error messages (always shown)
func (l *Logger) Error(msg string, args ...interface{}) {
	l.zlog.Error().Msgf(msg, args...)
}

// DebugWithFields logs debug message with structured fields
func (l *Logger) DebugWithFields(msg string, fields []Field, args ...interface{}) {
	if l.verbose() {
		withFields(l.zlog.Debug(), fields).Msgf(msg, args...)
	}
}

// InfoWithFields logs info message with structured fields
func (l *Logger) InfoWithFields(msg string, fields []Field, args ...interface{}) {
	if l.verbose() {
		withFields(l.zlog.Info(), fields).Msgf(msg, args...)
	}
}

// WarnWithFields logs warning message with structured fields
func (l *Logger) WarnWithFields(msg string, fields []Field, args ...interface{}) {
	withFields(l.zlog.Warn(), fields).Msgf(msg, args...)
}

// ErrorWithFields logs error message with structured fields
func (l *Logger) ErrorWithFields(msg string, fields []Field, args ...interface{}) {
	withFields(l.zlog.Error(), fields).Msgf(msg, args...)
}

func withFields(ev *zerolog.Event, fields []Field) *zerolog.Event {
	for _, field := range fields {
		switch v := field.Value.(type) {
		case error:
			ev = ev.AnErr(field.Key, v)
		case time.Duration:
			ev = ev.Dur(field.Key, v)
		default:
			ev = ev.Interface(field.Key, v)
		}
	}
	return ev
}

// SetGlobalLevel sets the minimum level zerolog emits
func SetGlobalLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}

// Helper functions for common field types
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

func Count(value int) Field {
	return Field{Key: "count", Value: value}
}

func Duration(d time.Duration) Field {
	return Field{Key: "duration", Value: d}
}

func Error(err error) Field {
	return Field{Key: "error", Value: err}
}

func Method(name string) Field {
	return Field{Key: "method", Value: name}
}
