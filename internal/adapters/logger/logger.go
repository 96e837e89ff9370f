// Package logger implements a logging adapter using log/slog.
package logger

import (
	"errors"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"sync"

	"go.trai.ch/evoke/internal/core/ports"
)

// zerrError is the part of zerr.Error the logger renders: the message of one
// link of the chain without its causes, and the metadata attached to it.
type zerrError interface {
	Message() string
	Metadata() map[string]any
}

// Logger implements ports.Logger using log/slog.
type Logger struct {
	logger *slog.Logger
	level  *slog.LevelVar
	mu     sync.RWMutex
}

// New creates a Logger writing human-readable text to stderr.
func New() *Logger {
	return NewWithWriter(os.Stderr)
}

// NewWithWriter creates a Logger writing human-readable text to w.
func NewWithWriter(w io.Writer) *Logger {
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)
	return &Logger{
		logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})),
		level:  level,
	}
}

var _ ports.Logger = (*Logger)(nil)

// SetOutput updates the logger's output destination.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l.level}))
}

// SetVerbose lowers the level to debug, or restores info.
func (l *Logger) SetVerbose(verbose bool) {
	if verbose {
		l.level.Set(slog.LevelDebug)
		return
	}
	l.level.Set(slog.LevelInfo)
}

// Debug logs a message only shown in verbose mode.
func (l *Logger) Debug(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Debug(msg)
}

// Info logs an informational message.
func (l *Logger) Info(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Info(msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Warn(msg)
}

// Error logs err with every link of its chain and the metadata attached to it.
func (l *Logger) Error(err error) {
	if err == nil {
		return
	}

	msg, attrs := describe(err)

	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Error(msg, attrs...)
}

// describe walks the error chain. Messages of zerr links are joined with ": ";
// the first foreign error ends the walk with its full text. Metadata keys are
// emitted in sorted order, outer links first.
func describe(err error) (string, []any) {
	var (
		msg   string
		attrs []any
		seen  = make(map[string]bool)
	)
	for current := err; current != nil; current = errors.Unwrap(current) {
		z, ok := current.(zerrError)
		if !ok {
			msg = join(msg, current.Error())
			break
		}
		msg = join(msg, z.Message())
		meta := z.Metadata()
		for _, k := range slices.Sorted(maps.Keys(meta)) {
			if seen[k] {
				continue
			}
			seen[k] = true
			attrs = append(attrs, slog.Any(k, meta[k]))
		}
	}
	return msg, attrs
}

func join(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + ": " + b
	}
}
