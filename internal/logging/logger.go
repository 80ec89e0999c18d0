package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"
)

// Level represents log severity
type Level string

const (
	// LevelDebug indicates fine-grained diagnostic logging.
	LevelDebug Level = "debug"
	// LevelInfo indicates informational logging.
	LevelInfo Level = "info"
	// LevelWarn indicates non-fatal warnings.
	LevelWarn Level = "warn"
	// LevelError indicates error logging requiring attention.
	LevelError Level = "error"
)

// Format selects the on-the-wire log encoding
type Format string

const (
	// FormatJSON emits one JSON object per event.
	FormatJSON Format = "json"
	// FormatText emits human-readable key=value lines.
	FormatText Format = "text"
)

// typeKey carries the dotted event type next to the message.
const typeKey = "type"

// Logger provides structured logging with dotted event types
// (e.g. "deviceconfig.collect.start") and a free-form payload.
type Logger struct {
	minLevel Level
	backend  *charmlog.Logger
	logFile  *os.File
}

// NewLogger creates a new text logger writing to stderr
func NewLogger(minLevel Level) *Logger {
	return NewLoggerWithWriter(minLevel, FormatText, os.Stderr)
}

// NewLoggerWithWriter creates a logger with an explicit format and sink
func NewLoggerWithWriter(minLevel Level, format Format, w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}

	return &Logger{
		minLevel: minLevel,
		backend:  newBackend(w, minLevel, format),
	}
}

// NewFileLogger creates a JSON logger appending to a file
func NewFileLogger(minLevel Level, logFilePath string) (*Logger, error) {
	logDir := filepath.Dir(logFilePath)
	if err := os.MkdirAll(logDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logFile, err := os.OpenFile(filepath.Clean(logFilePath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return &Logger{
		minLevel: minLevel,
		backend:  newBackend(logFile, minLevel, FormatJSON),
		logFile:  logFile,
	}, nil
}

// ParseLevel converts a config string into a Level, defaulting to info
func ParseLevel(s string) Level {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case LevelDebug:
		return LevelDebug
	case LevelWarn, "warning":
		return LevelWarn
	case LevelError:
		return LevelError
	default:
		return LevelInfo
	}
}

// ParseFormat converts a config string into a Format, defaulting to text
func ParseFormat(s string) Format {
	if Format(strings.ToLower(strings.TrimSpace(s))) == FormatJSON {
		return FormatJSON
	}
	return FormatText
}

func newBackend(w io.Writer, minLevel Level, format Format) *charmlog.Logger {
	formatter := charmlog.TextFormatter
	if format == FormatJSON {
		formatter = charmlog.JSONFormatter
	}

	return charmlog.NewWithOptions(w, charmlog.Options{
		Level:           toCharmLevel(minLevel),
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       formatter,
	})
}

func toCharmLevel(level Level) charmlog.Level {
	switch level {
	case LevelDebug:
		return charmlog.DebugLevel
	case LevelWarn:
		return charmlog.WarnLevel
	case LevelError:
		return charmlog.ErrorLevel
	default:
		return charmlog.InfoLevel
	}
}

// Close closes the log file if open
func (l *Logger) Close() error {
	if l.logFile != nil {
		err := l.logFile.Close()
		l.logFile = nil
		return err
	}
	return nil
}

// Log writes a structured log event
func (l *Logger) Log(level Level, eventType, message string, payload map[string]interface{}) {
	if l == nil || !l.shouldLog(level) {
		return
	}

	keyvals := make([]interface{}, 0, 2+2*len(payload))
	keyvals = append(keyvals, typeKey, eventType)

	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		keyvals = append(keyvals, k, payload[k])
	}

	l.backend.Log(toCharmLevel(level), message, keyvals...)
}

// Debug logs a debug-level event
func (l *Logger) Debug(eventType, message string, payload map[string]interface{}) {
	l.Log(LevelDebug, eventType, message, payload)
}

// Info logs an info-level event
func (l *Logger) Info(eventType, message string, payload map[string]interface{}) {
	l.Log(LevelInfo, eventType, message, payload)
}

// Warn logs a warn-level event
func (l *Logger) Warn(eventType, message string, payload map[string]interface{}) {
	l.Log(LevelWarn, eventType, message, payload)
}

// Error logs an error-level event
func (l *Logger) Error(eventType, message string, payload map[string]interface{}) {
	l.Log(LevelError, eventType, message, payload)
}

// shouldLog determines if a log level should be output
func (l *Logger) shouldLog(level Level) bool {
	levels := map[Level]int{
		LevelDebug: 0,
		LevelInfo:  1,
		LevelWarn:  2,
		LevelError: 3,
	}
	return levels[level] >= levels[l.minLevel]
}
