package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Level represents the severity of a log entry.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

var zerologLevels = map[Level]zerolog.Level{
	DEBUG: zerolog.DebugLevel,
	INFO:  zerolog.InfoLevel,
	WARN:  zerolog.WarnLevel,
	ERROR: zerolog.ErrorLevel,
}

// Logger provides structured JSON logging with optional secret redaction.
type Logger struct {
	mu        sync.RWMutex
	level     Level
	redactPII bool
	zl        zerolog.Logger
}

func newLogger(w io.Writer) *Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	return &Logger{
		level:     INFO,
		redactPII: true,
		zl:        zerolog.New(w).With().Timestamp().Logger(),
	}
}

var defaultLogger = newLogger(os.Stderr)

// SetLevel sets the minimum log level for the default logger.
func SetLevel(l Level) {
	defaultLogger.mu.Lock()
	defaultLogger.level = l
	defaultLogger.mu.Unlock()
}

// SetRedactPII enables or disables redaction for the default logger.
func SetRedactPII(r bool) {
	defaultLogger.mu.Lock()
	defaultLogger.redactPII = r
	defaultLogger.mu.Unlock()
}

// SetOutput redirects the default logger, mostly for tests.
func SetOutput(w io.Writer) {
	defaultLogger.mu.Lock()
	defaultLogger.zl = zerolog.New(w).With().Timestamp().Logger()
	defaultLogger.mu.Unlock()
}

// ParseLevel maps "debug", "info", "warn" or "error" to a Level.
// Unknown names fall back to INFO.
func ParseLevel(name string) Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// Debug emits a DEBUG-level structured log entry.
func Debug(msg string, fields ...interface{}) { defaultLogger.log(DEBUG, msg, fields...) }

// Info emits an INFO-level structured log entry.
func Info(msg string, fields ...interface{}) { defaultLogger.log(INFO, msg, fields...) }

// Warn emits a WARN-level structured log entry.
func Warn(msg string, fields ...interface{}) { defaultLogger.log(WARN, msg, fields...) }

// Error emits an ERROR-level structured log entry.
func Error(msg string, fields ...interface{}) { defaultLogger.log(ERROR, msg, fields...) }

func (l *Logger) log(level Level, msg string, fields ...interface{}) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if level < l.level {
		return
	}

	ev := l.zl.WithLevel(zerologLevels[level])

	// Parse key-value pairs from fields
	for i := 0; i < len(fields)-1; i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		val := fmt.Sprintf("%v", fields[i+1])
		if l.redactPII {
			val = redactValue(key, val)
		}
		ev = ev.Str(key, val)
	}

	ev.Msg(msg)
}
