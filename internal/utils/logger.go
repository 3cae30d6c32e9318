package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// ENABLE_BACKGROUND_LOGGING controls whether queue drains write a per-process log file
const ENABLE_BACKGROUND_LOGGING = true

// Logger provides leveled logging with verbose mode support
type Logger struct {
	verbose bool
	out     *log.Logger
	mu      sync.RWMutex
}

var (
	globalLogger *Logger
	loggerOnce   sync.Once
)

// GetLogger returns the global logger instance
func GetLogger() *Logger {
	loggerOnce.Do(func() {
		globalLogger = &Logger{
			verbose: false,
			out:     log.New(os.Stderr, "", 0),
		}
	})
	return globalLogger
}

// SetVerbose enables or disables verbose logging
func (l *Logger) SetVerbose(verbose bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.verbose = verbose
	if verbose {
		l.out.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	} else {
		l.out.SetFlags(0)
	}
}

// IsVerbose returns whether verbose logging is enabled
func (l *Logger) IsVerbose() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.verbose
}

// SetOutput redirects log output (tests capture it this way)
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out.SetOutput(w)
}

func (l *Logger) printf(level, format string, args ...interface{}) {
	l.mu.RLock()
	out := l.out
	l.mu.RUnlock()
	_ = out.Output(3, fmt.Sprintf("["+level+"] "+format, args...))
}

// Debug logs a debug message (only when verbose is enabled)
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.IsVerbose() {
		l.printf("DEBUG", format, args...)
	}
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	l.printf("INFO", format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.printf("WARN", format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.printf("ERROR", format, args...)
}

// Debugf is a convenience function for debug logging
func Debugf(format string, args ...interface{}) {
	GetLogger().Debug(format, args...)
}

// Infof is a convenience function for info logging
func Infof(format string, args ...interface{}) {
	GetLogger().Info(format, args...)
}

// Warnf is a convenience function for warning logging
func Warnf(format string, args ...interface{}) {
	GetLogger().Warn(format, args...)
}

// Errorf is a convenience function for error logging
func Errorf(format string, args ...interface{}) {
	GetLogger().Error(format, args...)
}

// SetVerboseMode is a convenience function to set global verbose mode
func SetVerboseMode(verbose bool) {
	GetLogger().SetVerbose(verbose)
}

// LogOperation logs the start and end of an operation
func LogOperation(operation string, fn func() error) error {
	logger := GetLogger()
	logger.Debug("Starting operation: %s", operation)

	err := fn()

	if err != nil {
		logger.Debug("Operation failed: %s - %v", operation, err)
	} else {
		logger.Debug("Operation completed: %s", operation)
	}

	return err
}

// BackgroundLogger writes queue-drain activity to a per-process file in the
// temp directory: adk-queue-{PID}.log
type BackgroundLogger struct {
	logger  *log.Logger
	file    *os.File
	path    string
	enabled bool
}

// NewBackgroundLogger opens the log file. When logging is disabled or the
// file cannot be created, a disabled logger is returned whose methods are no-ops.
func NewBackgroundLogger() (*BackgroundLogger, error) {
	if !ENABLE_BACKGROUND_LOGGING {
		return &BackgroundLogger{}, nil
	}

	path := filepath.Join(os.TempDir(), fmt.Sprintf("adk-queue-%d.log", os.Getpid()))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return &BackgroundLogger{}, fmt.Errorf("failed to open background log: %w", err)
	}

	return &BackgroundLogger{
		logger:  log.New(file, "", log.LstdFlags),
		file:    file,
		path:    path,
		enabled: true,
	}, nil
}

// IsEnabled reports whether messages are written anywhere
func (b *BackgroundLogger) IsEnabled() bool {
	return b != nil && b.enabled
}

// GetLogPath returns the log file path, empty when disabled
func (b *BackgroundLogger) GetLogPath() string {
	if b == nil {
		return ""
	}
	return b.path
}

// Printf writes a formatted message
func (b *BackgroundLogger) Printf(format string, args ...interface{}) {
	if b.IsEnabled() {
		b.logger.Printf(format, args...)
	}
}

// Close closes the log file. Safe to call more than once.
func (b *BackgroundLogger) Close() error {
	if !b.IsEnabled() {
		return nil
	}
	b.enabled = false
	return b.file.Close()
}
