package debuglog

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// LogLevel represents the severity level of a log message
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelOff // Disables all logging
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelOff:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel parses a string into a LogLevel. Unknown input maps to INFO.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	case "OFF":
		return LevelOff
	default:
		return LevelInfo
	}
}

var (
	mu           sync.RWMutex
	currentLevel = LevelOff
	logger       *log.Logger
	logFile      io.Closer
)

// DefaultPath is where logs go when Setup gets no explicit file.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".fotag", "fotag.log")
}

// Setup configures the logging system with the specified level and optional
// file path. An empty path means DefaultPath.
func Setup(level LogLevel, filePath string) error {
	mu.Lock()
	defer mu.Unlock()

	closeLocked()
	currentLevel = level
	if level == LevelOff {
		return nil
	}

	if filePath == "" {
		filePath = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}

	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file %s: %w", filePath, err)
	}

	logFile = f
	logger = log.New(f, "fotag ", log.LstdFlags|log.Lmicroseconds)
	return nil
}

// SetOutput routes logs to w instead of a file. Used by tests.
func SetOutput(level LogLevel, w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	closeLocked()
	currentLevel = level
	logger = log.New(w, "fotag ", 0)
}

func SetLevel(level LogLevel) {
	mu.Lock()
	defer mu.Unlock()
	currentLevel = level
}

func GetLevel() LogLevel {
	mu.RLock()
	defer mu.RUnlock()
	return currentLevel
}

// Close closes the log file if open
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	return closeLocked()
}

func closeLocked() error {
	var err error
	if logFile != nil {
		err = logFile.Close()
	}
	logFile = nil
	logger = nil
	return err
}

func logf(level LogLevel, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if level < currentLevel || logger == nil {
		return
	}
	logger.Printf("[%s] %s", level.String(), fmt.Sprintf(format, args...))
}

func Debugf(format string, args ...any) {
	logf(LevelDebug, format, args...)
}

func Infof(format string, args ...any) {
	logf(LevelInfo, format, args...)
}

func Warnf(format string, args ...any) {
	logf(LevelWarn, format, args...)
}

func Errorf(format string, args ...any) {
	logf(LevelError, format, args...)
}

// FieldLogger appends key=value pairs to every message.
type FieldLogger struct {
	suffix string
}

// WithFields returns a logger carrying fields, rendered in key order.
func WithFields(fields map[string]any) *FieldLogger {
	return &FieldLogger{suffix: formatFields(fields)}
}

func formatFields(fields map[string]any) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return " [" + strings.Join(parts, " ") + "]"
}

func (fl *FieldLogger) Debugf(format string, args ...any) {
	logf(LevelDebug, "%s%s", fmt.Sprintf(format, args...), fl.suffix)
}

func (fl *FieldLogger) Infof(format string, args ...any) {
	logf(LevelInfo, "%s%s", fmt.Sprintf(format, args...), fl.suffix)
}

func (fl *FieldLogger) Warnf(format string, args ...any) {
	logf(LevelWarn, "%s%s", fmt.Sprintf(format, args...), fl.suffix)
}

func (fl *FieldLogger) Errorf(format string, args ...any) {
	logf(LevelError, "%s%s", fmt.Sprintf(format, args...), fl.suffix)
}
