// Package logx is the service-wide logger. It fronts logrus so call sites
// stay independent of the backend.
package logx

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Fields are structured key/values attached to an entry
type Fields map[string]any

var std = newLogger()

func newLogger() *log.Logger {
	l := log.New()
	l.SetOutput(os.Stdout)
	l.SetLevel(log.InfoLevel)
	l.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return l
}

// SetLevel changes the minimum level that is emitted
func SetLevel(level Level) {
	switch level {
	case LevelDebug:
		std.SetLevel(log.DebugLevel)
	case LevelWarn:
		std.SetLevel(log.WarnLevel)
	case LevelError:
		std.SetLevel(log.ErrorLevel)
	default:
		std.SetLevel(log.InfoLevel)
	}
}

// ParseLevel maps a config string to a Level, defaulting to info
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// UseJSON switches to the JSON formatter used in production
func UseJSON(enabled bool) {
	if enabled {
		std.SetFormatter(&log.JSONFormatter{})
		return
	}
	std.SetFormatter(&log.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"})
}

// SetOutput redirects log output, mostly for tests
func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

// Entry is a logger carrying fields
type Entry struct {
	e *log.Entry
}

func WithFields(fields Fields) *Entry {
	return &Entry{e: std.WithFields(log.Fields(fields))}
}

func WithField(key string, value any) *Entry {
	return &Entry{e: std.WithField(key, value)}
}

func WithError(err error) *Entry {
	return &Entry{e: std.WithError(err)}
}

func (e *Entry) WithField(key string, value any) *Entry {
	return &Entry{e: e.e.WithField(key, value)}
}

func (e *Entry) Debug(args ...any)                 { e.e.Debug(args...) }
func (e *Entry) Debugf(format string, args ...any) { e.e.Debugf(format, args...) }
func (e *Entry) Info(args ...any)                  { e.e.Info(args...) }
func (e *Entry) Infof(format string, args ...any)  { e.e.Infof(format, args...) }
func (e *Entry) Warn(args ...any)                  { e.e.Warn(args...) }
func (e *Entry) Warnf(format string, args ...any)  { e.e.Warnf(format, args...) }
func (e *Entry) Error(args ...any)                 { e.e.Error(args...) }
func (e *Entry) Errorf(format string, args ...any) { e.e.Errorf(format, args...) }

func Debug(args ...any)                 { std.Debug(args...) }
func Debugf(format string, args ...any) { std.Debugf(format, args...) }
func Info(args ...any)                  { std.Info(args...) }
func Infof(format string, args ...any)  { std.Infof(format, args...) }
func Warn(args ...any)                  { std.Warn(args...) }
func Warnf(format string, args ...any)  { std.Warnf(format, args...) }
func Error(args ...any)                 { std.Error(args...) }
func Errorf(format string, args ...any) { std.Errorf(format, args...) }
func Fatal(args ...any)                 { std.Fatal(args...) }
func Fatalf(format string, args ...any) { std.Fatalf(format, args...) }
