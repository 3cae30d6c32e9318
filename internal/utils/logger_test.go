package utils

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogger_LevelsAndVerbose(t *testing.T) {
	logger := GetLogger()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(os.Stderr)
	defer logger.SetVerbose(false)

	logger.SetVerbose(false)
	Debugf("hidden %d", 1)
	if buf.Len() != 0 {
		t.Errorf("debug output should be suppressed when not verbose, got %q", buf.String())
	}

	Infof("info %s", "line")
	Warnf("warn line")
	Errorf("error line")
	out := buf.String()
	for _, want := range []string{"[INFO] info line", "[WARN] warn line", "[ERROR] error line"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %q", want, out)
		}
	}

	buf.Reset()
	SetVerboseMode(true)
	if !logger.IsVerbose() {
		t.Fatal("IsVerbose() should be true")
	}
	Debugf("shown %d", 2)
	if !strings.Contains(buf.String(), "[DEBUG] shown 2") {
		t.Errorf("debug output missing in verbose mode: %q", buf.String())
	}
}

func TestLogOperation(t *testing.T) {
	logger := GetLogger()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.SetVerbose(true)
	defer logger.SetOutput(os.Stderr)
	defer logger.SetVerbose(false)

	want := errors.New("nope")
	if err := LogOperation("drain queue", func() error { return want }); err != want {
		t.Errorf("LogOperation() = %v, want %v", err, want)
	}
	if !strings.Contains(buf.String(), "Operation failed: drain queue") {
		t.Errorf("missing failure log: %q", buf.String())
	}
}

func TestBackgroundLogger(t *testing.T) {
	bgLogger, err := NewBackgroundLogger()
	if err != nil && bgLogger.IsEnabled() {
		t.Fatalf("Failed to create background logger: %v", err)
	}
	defer bgLogger.Close()

	if !ENABLE_BACKGROUND_LOGGING {
		if bgLogger.IsEnabled() {
			t.Error("Logger should be disabled when ENABLE_BACKGROUND_LOGGING is false")
		}
		return
	}

	if !bgLogger.IsEnabled() {
		t.Fatal("Logger should be enabled when ENABLE_BACKGROUND_LOGGING is true")
	}

	logPath := bgLogger.GetLogPath()
	expectedPrefix := filepath.Join(os.TempDir(), "adk-queue-")
	if !strings.HasPrefix(logPath, expectedPrefix) {
		t.Errorf("Log path should start with %s, got: %s", expectedPrefix, logPath)
	}
	defer os.Remove(logPath)

	bgLogger.Printf("processing %d operations", 2)
	bgLogger.Printf("done")
	if err := bgLogger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := bgLogger.Close(); err != nil {
		t.Errorf("second Close() should be a no-op, got %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Log file should exist at %s: %v", logPath, err)
	}
	if !strings.Contains(string(data), "processing 2 operations") {
		t.Errorf("log file missing message: %q", data)
	}
}

func TestBackgroundLogger_NilSafe(t *testing.T) {
	var bgLogger *BackgroundLogger
	bgLogger.Printf("x")
	if bgLogger.IsEnabled() || bgLogger.GetLogPath() != "" {
		t.Error("nil logger should be disabled")
	}
	if err := bgLogger.Close(); err != nil {
		t.Errorf("Close() on nil logger = %v", err)
	}
}
