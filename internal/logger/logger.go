// Package logger provides structured logging for fimcache.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// Logger wraps a logrus logger and a set of fields bound to every entry
type Logger struct {
	log    *logrus.Logger
	fields logrus.Fields
}

// Entry accumulates fields for a single log line
type Entry struct {
	entry *logrus.Entry
	level logrus.Level
}

// New creates a new logger instance writing to output (stderr when nil).
// Unknown levels fall back to info.
func New(level string, output io.Writer) *Logger {
	if output == nil {
		output = os.Stderr
	}

	log := logrus.New()
	log.SetOutput(output)

	logLevel, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	log.SetLevel(logLevel)

	log.SetFormatter(&logrus.TextFormatter{
		ForceColors:      isTerminal(output),
		DisableColors:    !isTerminal(output),
		DisableTimestamp: true,
		PadLevelText:     true,
	})

	return &Logger{log: log}
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return New("panic", io.Discard)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// With returns a child logger that adds key=value to every entry
func (l *Logger) With(key string, value interface{}) *Logger {
	fields := make(logrus.Fields, len(l.fields)+1)
	for k, v := range l.fields {
		fields[k] = v
	}
	fields[key] = value
	return &Logger{log: l.log, fields: fields}
}

// Enabled reports whether entries at level would be written
func (l *Logger) Enabled(level string) bool {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return false
	}
	return l.log.IsLevelEnabled(lvl)
}

func (l *Logger) newEntry(level logrus.Level) *Entry {
	entry := logrus.NewEntry(l.log)
	if len(l.fields) > 0 {
		entry = entry.WithFields(l.fields)
	}
	return &Entry{entry: entry, level: level}
}

// Debug starts a debug entry
func (l *Logger) Debug() *Entry {
	return l.newEntry(logrus.DebugLevel)
}

// Info starts an info entry
func (l *Logger) Info() *Entry {
	return l.newEntry(logrus.InfoLevel)
}

// Warn starts a warning entry
func (l *Logger) Warn() *Entry {
	return l.newEntry(logrus.WarnLevel)
}

// Error starts an error entry
func (l *Logger) Error() *Entry {
	return l.newEntry(logrus.ErrorLevel)
}

// Str adds a string field
func (e *Entry) Str(key, value string) *Entry {
	e.entry = e.entry.WithField(key, value)
	return e
}

// Strs adds a string slice field
func (e *Entry) Strs(key string, values []string) *Entry {
	e.entry = e.entry.WithField(key, strings.Join(values, ","))
	return e
}

// Int adds an int field
func (e *Entry) Int(key string, value int) *Entry {
	e.entry = e.entry.WithField(key, value)
	return e
}

// Bool adds a bool field
func (e *Entry) Bool(key string, value bool) *Entry {
	e.entry = e.entry.WithField(key, value)
	return e
}

// Err adds an error field
func (e *Entry) Err(err error) *Entry {
	if err != nil {
		e.entry = e.entry.WithError(err)
	}
	return e
}

// Dur adds a duration field (formatted in milliseconds)
func (e *Entry) Dur(key string, duration time.Duration) *Entry {
	ms := float64(duration.Microseconds()) / 1000.0
	e.entry = e.entry.WithField(key, ms)
	return e
}

// Float adds a float field
func (e *Entry) Float(key string, value float64) *Entry {
	e.entry = e.entry.WithField(key, value)
	return e
}

// Any adds a field of arbitrary type
func (e *Entry) Any(key string, value interface{}) *Entry {
	e.entry = e.entry.WithField(key, value)
	return e
}

// Msg writes the entry at its level
func (e *Entry) Msg(msg string) {
	e.entry.Log(e.level, msg)
}
