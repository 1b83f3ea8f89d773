// Package logging writes structured JSON log lines, one object per line.
// Handlers and background workers share the Default logger; components that
// want bound fields derive their own with WithFields.
package logging

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level is a log severity. Lines below the logger's level are dropped.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[Level]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseLevel maps a level name to its Level, defaulting to info for
// anything unrecognized.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger writes JSON lines to a single writer. All methods are safe for
// concurrent use.
type Logger struct {
	mu    sync.Mutex
	out   io.Writer
	level Level
	bound map[string]interface{}
}

// New builds a logger writing to stdout. The minimum level comes from
// LOG_LEVEL, defaulting to info.
func New() *Logger {
	return &Logger{
		out:   os.Stdout,
		level: ParseLevel(os.Getenv("LOG_LEVEL")),
		bound: map[string]interface{}{},
	}
}

// SetOutput redirects the logger's writer, mainly for tests.
func (l *Logger) SetOutput(w io.Writer) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = w
	return l
}

// SetLevel sets the minimum level a line needs to be written.
func (l *Logger) SetLevel(level Level) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
	return l
}

// WithFields derives a logger that attaches the given fields to every line.
// The receiver is not modified.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	bound := make(map[string]interface{}, len(l.bound)+len(fields))
	for k, v := range l.bound {
		bound[k] = v
	}
	for k, v := range fields {
		bound[k] = v
	}
	return &Logger{out: l.out, level: l.level, bound: bound}
}

// WithField derives a logger with one extra bound field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

func (l *Logger) Debug(msg string, fields ...map[string]interface{}) { l.write(LevelDebug, msg, fields) }
func (l *Logger) Info(msg string, fields ...map[string]interface{})  { l.write(LevelInfo, msg, fields) }
func (l *Logger) Warn(msg string, fields ...map[string]interface{})  { l.write(LevelWarn, msg, fields) }
func (l *Logger) Error(msg string, fields ...map[string]interface{}) { l.write(LevelError, msg, fields) }

func (l *Logger) write(level Level, msg string, fieldSets []map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.level {
		return
	}

	line := map[string]interface{}{
		"ts":    time.Now().UTC().Format(time.RFC3339Nano),
		"level": level.String(),
		"msg":   msg,
	}
	for k, v := range l.bound {
		line[k] = v
	}
	for _, fields := range fieldSets {
		for k, v := range fields {
			line[k] = v
		}
	}

	data, err := json.Marshal(line)
	if err != nil {
		// Unmarshalable field value; keep the line, drop the fields.
		data, _ = json.Marshal(map[string]interface{}{
			"ts": line["ts"], "level": line["level"], "msg": msg,
		})
	}
	l.out.Write(append(data, '\n'))
}

// Default is the process-wide logger.
var Default = New()

// SetDefaultLevel sets the level on the Default logger.
func SetDefaultLevel(level Level) {
	Default.SetLevel(level)
}

// Debug logs on the Default logger.
func Debug(msg string, fields ...map[string]interface{}) { Default.Debug(msg, fields...) }

// Info logs on the Default logger.
func Info(msg string, fields ...map[string]interface{}) { Default.Info(msg, fields...) }

// Warn logs on the Default logger.
func Warn(msg string, fields ...map[string]interface{}) { Default.Warn(msg, fields...) }

// Error logs on the Default logger.
func Error(msg string, fields ...map[string]interface{}) { Default.Error(msg, fields...) }
