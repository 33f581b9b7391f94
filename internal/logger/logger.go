// Package logger provides centralized logging for MindMend.
// It wraps charmbracelet/log with level and destination configuration driven by
// CLI flags and the MINDMEND_LOG_LEVEL environment variable.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// Logger is the process-wide logger instance.
var Logger *log.Logger

func init() {
	Logger = newLogger(os.Stderr, log.WarnLevel)
}

func newLogger(w io.Writer, level log.Level) *log.Logger {
	l := log.New(w)
	l.SetTimeFormat("")
	l.SetLevel(level)
	return l
}

// Configure sets up the logger from CLI flags.
// Precedence for the level: flag > MINDMEND_LOG_LEVEL > warn.
// Interactive sessions default to warn so that info chatter does not interleave with the transcript.
func Configure(logLevel string, logFile string, testMode bool) error {
	level := logLevel
	if level == "" {
		level = os.Getenv("MINDMEND_LOG_LEVEL")
	}

	var output io.Writer = os.Stderr
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return err
		}
		output = file
	}

	Logger = newLogger(output, ParseLevel(level))

	if testMode {
		// Deterministic output: no timestamps, fixed level.
		Logger.SetTimeFormat("")
		Logger.SetLevel(log.WarnLevel)
	}
	return nil
}

// SetOutput redirects the global logger, keeping its level. Used by tests.
func SetOutput(w io.Writer) {
	Logger = newLogger(w, Logger.GetLevel())
}

// ParseLevel converts a level name to a log level, defaulting to warn.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.WarnLevel
	}
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg interface{}, keyvals ...interface{}) {
	Logger.Debug(msg, keyvals...)
}

// Info logs an info message with optional key-value pairs.
func Info(msg interface{}, keyvals ...interface{}) {
	Logger.Info(msg, keyvals...)
}

// Warn logs a warning message with optional key-value pairs.
func Warn(msg interface{}, keyvals ...interface{}) {
	Logger.Warn(msg, keyvals...)
}

// Error logs an error message with optional key-value pairs.
func Error(msg interface{}, keyvals ...interface{}) {
	Logger.Error(msg, keyvals...)
}

// Fatal logs a fatal message with optional key-value pairs and exits.
func Fatal(msg interface{}, keyvals ...interface{}) {
	Logger.Fatal(msg, keyvals...)
}

// ServiceOperation logs service lifecycle details at debug level.
func ServiceOperation(service string, operation string, details ...interface{}) {
	Debug("Service operation", "service", service, "operation", operation, "details", details)
}

// NewStyledLogger creates a component logger with a prefix and coloured level badges.
func NewStyledLogger(prefix string) *log.Logger {
	styles := log.DefaultStyles()

	badge := func(name, bg string) lipgloss.Style {
		return lipgloss.NewStyle().
			SetString(name).
			Padding(0, 1, 0, 1).
			Background(lipgloss.Color(bg)).
			Foreground(lipgloss.Color("15"))
	}
	styles.Levels[log.DebugLevel] = badge("DEBUG", "240")
	styles.Levels[log.InfoLevel] = badge("INFO", "33")
	styles.Levels[log.WarnLevel] = badge("WARN", "214")
	styles.Levels[log.ErrorLevel] = badge("ERROR", "196")
	styles.Levels[log.FatalLevel] = badge("FATAL", "88")

	styles.Keys["error"] = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	styles.Keys["reason"] = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	styles.Keys["provider"] = lipgloss.NewStyle().Foreground(lipgloss.Color("51"))
	styles.Values["error"] = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))

	componentLogger := log.NewWithOptions(os.Stderr, log.Options{
		Prefix: prefix + " ",
	})
	componentLogger.SetStyles(styles)
	componentLogger.SetLevel(Logger.GetLevel())
	return componentLogger
}
