// ABOUTME: Leveled logging facade backed by zerolog; printf-style helpers for library code
// ABOUTME: Global level via SetLevel; console output on stderr to stay clear of stdout rendering

package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Level constants matching zerolog levels.
const (
	LevelDebug = zerolog.DebugLevel
	LevelInfo  = zerolog.InfoLevel
	LevelWarn  = zerolog.WarnLevel
	LevelError = zerolog.ErrorLevel
)

var (
	level atomic.Int32

	mu     sync.RWMutex
	logger zerolog.Logger
)

func init() {
	level.Store(int32(LevelInfo))
	logger = newLogger(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
}

func newLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).Level(zerolog.TraceLevel).With().Timestamp().Logger()
}

// SetOutput redirects log output. Writers other than a zerolog.ConsoleWriter
// receive one JSON object per line.
func SetOutput(w io.Writer) {
	mu.Lock()
	logger = newLogger(w)
	mu.Unlock()
}

// SetLevel sets the global log level.
func SetLevel(l zerolog.Level) {
	level.Store(int32(l))
}

// GetLevel returns the current log level.
func GetLevel() zerolog.Level {
	return zerolog.Level(level.Load())
}

// ParseLevel converts a level name ("debug", "info", "warn", "error").
// An empty name yields LevelInfo.
func ParseLevel(s string) (zerolog.Level, error) {
	if strings.TrimSpace(s) == "" {
		return LevelInfo, nil
	}
	l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return l, nil
}

func emit(l zerolog.Level, format string, args ...any) {
	if l < GetLevel() {
		return
	}
	mu.RLock()
	lg := logger
	mu.RUnlock()
	lg.WithLevel(l).Msgf(format, args...)
}

// Debug logs a debug message if the level allows it.
func Debug(format string, args ...any) {
	emit(LevelDebug, format, args...)
}

// Info logs an info message if the level allows it.
func Info(format string, args ...any) {
	emit(LevelInfo, format, args...)
}

// Warn logs a warning message if the level allows it.
func Warn(format string, args ...any) {
	emit(LevelWarn, format, args...)
}

// Error logs an error message (always emitted).
func Error(format string, args ...any) {
	mu.RLock()
	lg := logger
	mu.RUnlock()
	lg.WithLevel(LevelError).Msgf(format, args...)
}
