package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

// Level represents the severity of a log message.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

// Logger defines a minimal, printf-style logging contract.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

var (
	rootInstance *rootLogger
	rootOnce     sync.Once
)

// rootLogger owns the shared sinks; component loggers share it.
type rootLogger struct {
	mu     sync.Mutex
	out    io.Writer
	file   *os.File
	logger *log.Logger
	level  Level
}

func root() *rootLogger {
	rootOnce.Do(func() {
		rootInstance = &rootLogger{out: os.Stdout, level: DEBUG}
		home, err := os.UserHomeDir()
		if err != nil {
			return
		}
		logPath := filepath.Join(home, "tradingagents-debug.log")
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return
		}
		rootInstance.file = file
		rootInstance.logger = log.New(file, "", 0)
	})
	return rootInstance
}

// SetLevel sets the minimum level for all component loggers.
func SetLevel(level Level) {
	r := root()
	r.mu.Lock()
	r.level = level
	r.mu.Unlock()
}

func (r *rootLogger) log(component string, level Level, format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if level < r.level {
		return
	}

	_, file, line, ok := runtime.Caller(3)
	if ok {
		file = filepath.Base(file)
	} else {
		file = "???"
		line = 0
	}

	// Format: 2025-09-30 12:34:56 [INFO] [ComponentName] file.go:123 - Message
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	if component == "" {
		component = "TradingAgents"
	}
	message := fmt.Sprintf(format, args...)
	logLine := fmt.Sprintf("%s [%s] [%s] %s:%d - %s\n",
		timestamp, levelToString(level), component, file, line, message)

	if r.logger != nil {
		r.logger.Print(logLine)
	}
	fmt.Fprint(r.out, logLine)
}

func levelToString(level Level) string {
	switch level {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

type componentLogger struct {
	component string
}

// NewComponentLogger returns the default application logger scoped to a component.
func NewComponentLogger(component string) Logger {
	return &componentLogger{component: component}
}

func (l *componentLogger) Debug(format string, args ...any) {
	root().log(l.component, DEBUG, format, args...)
}

func (l *componentLogger) Info(format string, args ...any) {
	root().log(l.component, INFO, format, args...)
}

func (l *componentLogger) Warn(format string, args ...any) {
	root().log(l.component, WARN, format, args...)
}

func (l *componentLogger) Error(format string, args ...any) {
	root().log(l.component, ERROR, format, args...)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Nop returns a logger that discards all output.
func Nop() Logger {
	return nopLogger{}
}

// OrNop returns logger when non-nil, otherwise a no-op logger.
func OrNop(logger Logger) Logger {
	if logger == nil {
		return Nop()
	}
	return logger
}
