// Package logger provides a simple, clean logging interface.
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rs/zerolog"
)

const (
	callerSkipFrames = 2 // getCaller -> logging method -> actual caller
	componentKey     = "component"
)

// Logger defines the logging interface.
type Logger interface {
	Info(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)
	Debug(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Fatal(ctx context.Context, msg string, fields ...Field)

	Named(name string) Logger
}

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value interface{}
}

// Field constructors.
func String(key, val string) Field          { return Field{Key: key, Value: val} }
func Int(key string, val int) Field         { return Field{Key: key, Value: val} }
func Float64(key string, val float64) Field { return Field{Key: key, Value: val} }
func Any(key string, val interface{}) Field { return Field{Key: key, Value: val} }
func Error(err error) Field                 { return Field{Key: "error", Value: err} }

// zeroLogger implements Logger on top of zerolog.
type zeroLogger struct {
	zl   zerolog.Logger
	name string
}

func (l *zeroLogger) Named(name string) Logger {
	full := name
	if l.name != "" {
		full = l.name + "." + name
	}
	return &zeroLogger{zl: l.zl, name: full}
}

func (l *zeroLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.emit(ctx, l.zl.Info(), msg, getCaller(), fields)
}

func (l *zeroLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.emit(ctx, l.zl.Error(), msg, getCaller(), fields)
}

func (l *zeroLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.emit(ctx, l.zl.Debug(), msg, getCaller(), fields)
}

func (l *zeroLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.emit(ctx, l.zl.Warn(), msg, getCaller(), fields)
}

func (l *zeroLogger) Fatal(ctx context.Context, msg string, fields ...Field) {
	// zerolog's Fatal level exits on Msg.
	l.emit(ctx, l.zl.Fatal(), msg, getCaller(), fields)
}

func (l *zeroLogger) emit(ctx context.Context, ev *zerolog.Event, msg, caller string, fields []Field) {
	if ev == nil {
		return
	}
	if ctx != nil {
		ev = ev.Ctx(ctx)
	}
	if l.name != "" {
		ev = ev.Str(componentKey, l.name)
	}
	for _, f := range fields {
		if err, ok := f.Value.(error); ok {
			ev = ev.AnErr(f.Key, err)
			continue
		}
		ev = ev.Interface(f.Key, f.Value)
	}
	ev.Str("source", caller).Msg(msg)
}

var global Logger

// Init initializes the global logger writing JSON lines to stdout.
func Init() error {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	global = New(os.Stdout)
	return nil
}

// InitConsole initializes the global logger with zerolog's human readable writer.
func InitConsole() error {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	global = New(zerolog.ConsoleWriter{Out: os.Stderr})
	return nil
}

// New builds a standalone logger on w. The global level still applies.
func New(w io.Writer) Logger {
	return &zeroLogger{zl: zerolog.New(w).With().Timestamp().Logger()}
}

// NewNop returns a logger that discards everything.
func NewNop() Logger {
	return &zeroLogger{zl: zerolog.Nop()}
}

// getCaller returns the caller location in format relative/path/file.go:line (IDE-friendly).
func getCaller() string {
	_, file, line, ok := runtime.Caller(callerSkipFrames)
	if !ok {
		return "unknown:0"
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}

	relPath, err := filepath.Rel(cwd, file)
	if err != nil {
		return fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}

	return fmt.Sprintf("%s:%d", relPath, line)
}

// Get returns the global logger.
func Get() Logger {
	if global == nil {
		// The application initializes the logger explicitly.
		panic("logger not initialized. Call logger.Init() first")
	}
	return global
}

// Named creates a named logger.
func Named(name string) Logger {
	return Get().Named(name)
}

// Sync flushes buffered log entries.
func Sync() error {
	// zerolog writes synchronously; nothing to flush
	return nil
}

// SetLevel updates the global logging level.
func SetLevel(level zerolog.Level) { zerolog.SetGlobalLevel(level) }

// SetLevelString parses and sets the logging level.
// Accepts: debug, info, warn/warning, error (case-insensitive).
func SetLevelString(level string) error {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		SetLevel(zerolog.DebugLevel)
	case "", "info":
		SetLevel(zerolog.InfoLevel)
	case "warn", "warning":
		SetLevel(zerolog.WarnLevel)
	case "error":
		SetLevel(zerolog.ErrorLevel)
	default:
		return fmt.Errorf("unknown log level: %s", level)
	}
	return nil
}
