package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Level represents a log level
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	currentLevel Level = LevelInfo
	mu           sync.RWMutex
	log          = newLogger(os.Stderr)
)

func newLogger(w io.Writer) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly, NoColor: !isTerminal(w)}
	return zerolog.New(out).With().Timestamp().Logger()
}

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

// SetOutput redirects log output. The terminal widget uses this so log lines
// do not land on top of the rendered UI.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	log = newLogger(w)
}

// SetLevel sets the global log level from a string.
// Valid values: "debug", "info", "warn", "error".
func SetLevel(level string) {
	mu.Lock()
	switch strings.ToLower(level) {
	case "debug":
		currentLevel = LevelDebug
	case "info":
		currentLevel = LevelInfo
	case "warn":
		currentLevel = LevelWarn
	case "error":
		currentLevel = LevelError
	default:
		currentLevel = LevelInfo
	}
	mu.Unlock()
	Debugf("Log level set to: %s", strings.ToLower(level))
}

// GetLevel returns the current level.
func GetLevel() Level {
	mu.RLock()
	defer mu.RUnlock()
	return currentLevel
}

func current() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// Debugf logs a debug message.
func Debugf(format string, args ...interface{}) {
	if GetLevel() <= LevelDebug {
		l := current()
		l.Debug().Msgf(format, args...)
	}
}

// Infof logs an info message.
func Infof(format string, args ...interface{}) {
	if GetLevel() <= LevelInfo {
		l := current()
		l.Info().Msgf(format, args...)
	}
}

// Warnf logs a warning message.
func Warnf(format string, args ...interface{}) {
	if GetLevel() <= LevelWarn {
		l := current()
		l.Warn().Msgf(format, args...)
	}
}

// Errorf logs an error message.
func Errorf(format string, args ...interface{}) {
	l := current()
	l.Error().Msgf(format, args...)
}
