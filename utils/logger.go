package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

// Level orders log severities; messages below the logger's level are dropped.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps "debug", "info", "warn" and "error" to a Level.
// Anything else yields LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger provides leveled logging throughout the application.
type Logger struct {
	level Level
	info  *log.Logger
	warn  *log.Logger
	err   *log.Logger
	debug *log.Logger
}

// NewLogger creates a Logger writing to stdout/stderr, honouring LOG_LEVEL.
func NewLogger() *Logger {
	l := NewLoggerTo(os.Stdout, os.Stderr)
	l.level = ParseLevel(os.Getenv("LOG_LEVEL"))
	return l
}

// NewLoggerTo creates a debug-level Logger writing to the given sinks.
func NewLoggerTo(out, errOut io.Writer) *Logger {
	return &Logger{
		level: LevelDebug,
		info:  log.New(out, "", 0),
		warn:  log.New(out, "", 0),
		err:   log.New(errOut, "", 0),
		debug: log.New(out, "", 0),
	}
}

// Discard returns a Logger that writes nowhere; handy in tests.
func Discard() *Logger {
	return NewLoggerTo(io.Discard, io.Discard)
}

// SetLevel changes the minimum level that gets written.
func (l *Logger) SetLevel(level Level) { l.level = level }

func (l *Logger) timestamp() string {
	return time.Now().Format("2006-01-02 15:04:05")
}

func (l *Logger) Info(format string, args ...any) {
	if l.level > LevelInfo {
		return
	}
	l.info.Printf(fmt.Sprintf("[%s] \033[32mINFO\033[0m  %s\n", l.timestamp(), format), args...)
}

func (l *Logger) Warn(format string, args ...any) {
	if l.level > LevelWarn {
		return
	}
	l.warn.Printf(fmt.Sprintf("[%s] \033[33mWARN\033[0m  %s\n", l.timestamp(), format), args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.err.Printf(fmt.Sprintf("[%s] \033[31mERROR\033[0m %s\n", l.timestamp(), format), args...)
}

func (l *Logger) Debug(format string, args ...any) {
	if l.level > LevelDebug {
		return
	}
	l.debug.Printf(fmt.Sprintf("[%s] \033[36mDEBUG\033[0m %s\n", l.timestamp(), format), args...)
}
