package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew_WritesToFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	console, err := os.CreateTemp(t.TempDir(), "console")
	if err != nil {
		t.Fatal(err)
	}
	defer console.Close()

	logger, err := New(console, dir, true)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	logger.Debug().Str("study", "abc").Msg("Study created")

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("Expected log file: %v", err)
	}
	if !strings.Contains(string(data), `"study":"abc"`) {
		t.Errorf("Expected JSON log line in file, got %q", data)
	}

	consoleOut, _ := os.ReadFile(console.Name())
	if !strings.Contains(string(consoleOut), "Study created") {
		t.Errorf("Expected console output, got %q", consoleOut)
	}
	if strings.Contains(string(consoleOut), "\x1b[") {
		t.Error("Expected no colour codes when the console is not a terminal")
	}
}

func TestNew_UnwritableDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain-file")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(os.Stderr, filepath.Join(file, "logs"), false); err == nil {
		t.Error("Expected an error when the log directory cannot be created")
	}
}
