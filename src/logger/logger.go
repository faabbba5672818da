package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"nepse-observer/src/models"

	"gopkg.in/natefinch/lumberjack.v2"
)

// -----------------------------------------------------------------------------

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

// ParseLevel maps a config string to a Level. Unknown values mean INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARNING", "WARN":
		return LevelWarning
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// -----------------------------------------------------------------------------

var (
	outputOnce sync.Once
	sharedOut  io.Writer = os.Stdout
)

// output returns the process-wide writer. The first config carrying a log file
// wins; later loggers share the same rotating file.
func output(cfg *models.MConfig) io.Writer {
	if cfg == nil || cfg.LogFile == "" {
		return sharedOut
	}
	outputOnce.Do(func() {
		maxSize := cfg.LogMaxSizeMB
		if maxSize <= 0 {
			maxSize = 50
		}
		sharedOut = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    maxSize,
			MaxBackups: cfg.LogMaxBackups,
			Compress:   true,
		})
	})
	return sharedOut
}

// -----------------------------------------------------------------------------

// Logger provides structured logging functionality
type Logger struct {
	name   string
	level  Level
	logger *log.Logger
}

// -----------------------------------------------------------------------------

// NewLogger creates a new Logger instance. cfg may be nil.
func NewLogger(cfg *models.MConfig, name string) *Logger {
	level := LevelInfo
	if cfg != nil {
		level = ParseLevel(cfg.LogLevel)
	}
	return &Logger{
		name:   name,
		level:  level,
		logger: log.New(output(cfg), "", log.LstdFlags),
	}
}

// NewWriterLogger logs to w. Tests use it to capture output.
func NewWriterLogger(w io.Writer, name string, level Level) *Logger {
	return &Logger{name: name, level: level, logger: log.New(w, "", 0)}
}

// Named returns a logger sharing this one's sink and level.
func (l *Logger) Named(name string) *Logger {
	return &Logger{name: name, level: l.level, logger: l.logger}
}

// -----------------------------------------------------------------------------

func (l *Logger) write(level Level, tag, format string, args ...interface{}) {
	if level < l.level {
		return
	}
	msg := fmt.Sprintf(format, args...)
	l.logger.Printf("[%s] %s: %s", l.name, tag, msg)
}

// Debug logs diagnostic messages
func (l *Logger) Debug(format string, args ...interface{}) {
	l.write(LevelDebug, "DEBUG", format, args...)
}

// Warning logs recoverable problems
func (l *Logger) Warning(format string, args ...interface{}) {
	l.write(LevelWarning, "WARNING", format, args...)
}

// Info logs informational messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.write(LevelInfo, "INFO", format, args...)
}

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.write(LevelError, "ERROR", format, args...)
}

// -----------------------------------------------------------------------------

// Critical logs critical errors and exits the application
func (l *Logger) Critical(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.logger.Printf("[%s] CRITICAL: %s", l.name, msg)
	os.Exit(1)
}
