package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInit(t *testing.T) {
	tempDir := t.TempDir()
	configDir := filepath.Join(tempDir, "config")

	err := Init(Config{
		Debug:     false,
		ConfigDir: configDir,
	})
	if err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}

	logDir := filepath.Join(configDir, "logs")
	if _, err := os.Stat(logDir); os.IsNotExist(err) {
		t.Errorf("Log directory was not created: %s", logDir)
	}
	if got := Path(configDir); got != filepath.Join(logDir, "salah.log") {
		t.Errorf("Path() = %s", got)
	}

	if Logger == nil {
		t.Error("Logger is nil after initialization")
	}

	Debug("Test debug message")
	Info("Test info message")
	Warn("Test warning message")
	Error("Test error message")
}

func TestInitDebugMode(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), "config")

	if err := Init(Config{Debug: true, ConfigDir: configDir}); err != nil {
		t.Fatalf("Failed to initialize logger in debug mode: %v", err)
	}
	if Logger == nil {
		t.Error("Logger is nil after initialization")
	}

	Debug("Test debug message in debug mode")
	Info("Test info message in debug mode")
}

func TestLogFunctionsWithoutInit(t *testing.T) {
	Logger = nil

	// These should not panic when Logger is nil
	Debug("Test debug message")
	Info("Test info message")
	Warn("Test warning message")
	Error("Test error message")
}

func TestCronLoggerWithoutInit(t *testing.T) {
	Logger = nil

	l := CronLogger()
	l.Info("schedule", "now", "00:01")
	l.Error(errors.New("boom"), "job failed", "entry", 1)
}

func TestNewLevels(t *testing.T) {
	defer func() { Logger = nil }()

	tests := []struct {
		name      string
		debug     bool
		wantDebug bool
	}{
		{"default", false, false},
		{"debug", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Logger = New(&buf, tt.debug)

			Debug("armed reminder", "prayer", "Fajr")
			Info("rolled over", "date", "2026-02-01")

			out := buf.String()
			if strings.Contains(out, "armed reminder") != tt.wantDebug {
				t.Errorf("debug line present = %v, want %v:\n%s", !tt.wantDebug, tt.wantDebug, out)
			}
			if !strings.Contains(out, "rolled over") || !strings.Contains(out, "date=2026-02-01") {
				t.Errorf("info line missing:\n%s", out)
			}
		})
	}
}

func TestInitUnwritableDir(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := Init(Config{ConfigDir: blocker}); err == nil {
		t.Error("expected error when the log directory cannot be created")
	}
}
