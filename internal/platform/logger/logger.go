// Package logger builds the slog.Logger shared by the tutorial and the
// storage packages: a tint console stream plus an optional rotating JSON file.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options defines parameters for logger creation.
type Options struct {
	Env          string
	ConsoleLevel string // Level for console output (default: info)
	FileLevel    string // Level for file output (default: debug)
	File         string
	App          string
	Console      io.Writer // Console destination (default: os.Stderr)
	Sensitive    []string  // Extra attribute keys to redact
}

// SensitiveKeys are always redacted, in any group.
var SensitiveKeys = []string{"password", "secret", "token", "api_key"}

// Rotation limits of the log file.
const (
	fileMaxSizeMB  = 5
	fileMaxBackups = 3
	fileMaxAgeDays = 28
)

var closers sync.Map

// New creates configured slog.Logger instance.
func New(o Options) *slog.Logger {
	console := o.Console
	if console == nil {
		// stdout carries the lesson tables
		console = os.Stderr
	}
	keys := make([]string, 0, len(SensitiveKeys)+len(o.Sensitive))
	keys = append(append(keys, SensitiveKeys...), o.Sensitive...)

	handlers := []slog.Handler{
		NewRedactingHandler(consoleHandler(console, o.Env, levelOr(o.ConsoleLevel, slog.LevelInfo)), keys),
	}

	var file *lumberjack.Logger
	if o.File != "" {
		file = &lumberjack.Logger{
			Filename:   o.File,
			MaxSize:    fileMaxSizeMB,
			MaxBackups: fileMaxBackups,
			MaxAge:     fileMaxAgeDays,
			Compress:   true,
		}
		fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: levelOr(o.FileLevel, slog.LevelDebug)})
		handlers = append(handlers, NewRedactingHandler(fileHandler, keys))
	}

	h := handlers[0]
	if len(handlers) > 1 {
		h = NewMultiHandler(handlers...)
	}
	l := slog.New(h).With(slog.String("app", o.App), slog.String("env", o.Env))

	if file != nil {
		closers.Store(l, file.Close)
	}
	return l
}

// Close releases the log file behind a logger built by New.
// Loggers derived with With share the file but are not registered here.
func Close(l *slog.Logger) error {
	c, ok := closers.LoadAndDelete(l)
	if !ok {
		return nil
	}
	return c.(func() error)()
}

func consoleHandler(w io.Writer, env string, level slog.Level) slog.Handler {
	if env == "dev" {
		return tint.NewHandler(w, &tint.Options{Level: level, TimeFormat: time.Kitchen})
	}
	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
		NoColor:    w != os.Stderr && w != os.Stdout,
	})
}

func levelOr(s string, def slog.Level) slog.Level {
	if s == "" {
		return def
	}
	return levelFromString(s)
}

func levelFromString(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
