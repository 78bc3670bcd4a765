package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the name of the rotating log file inside the log directory.
const FileName = "sigma-mcp.log"

// Init initializes the global logger with dual sinks: os.Stderr and a rotating
// file. stdout is left alone because it carries the MCP stream. Failing to
// prepare the log directory is fatal.
func Init(verbose bool) {
	// Init runs before config.Load, so LOGS_FOLDER may still sit in the binary's .env.
	exePath, err := os.Executable()
	if err == nil {
		_ = godotenv.Load(filepath.Join(filepath.Dir(exePath), ".env"))
	}

	logDir := os.Getenv("LOGS_FOLDER")
	if logDir == "" {
		if err == nil {
			logDir = filepath.Join(filepath.Dir(exePath), "logs")
		} else {
			logDir = "logs"
		}
	}

	logger, err := New(os.Stderr, logDir, verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log.Logger = logger
}

// New builds a logger writing human-readable lines to console and JSON lines
// to a rotating file in logDir. Colours are only used when console is a terminal.
func New(console *os.File, logDir string, verbose bool) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	isTerminal := isatty.IsTerminal(console.Fd()) || isatty.IsCygwinTerminal(console.Fd())
	consoleWriter := zerolog.ConsoleWriter{
		Out:        console,
		TimeFormat: time.RFC3339,
		NoColor:    !isTerminal,
	}

	if err := ensureWritable(logDir); err != nil {
		return zerolog.Nop(), err
	}

	fileWriter := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, FileName),
		MaxSize:    16, // megabytes
		MaxBackups: 8,
		MaxAge:     90, // days
		Compress:   true,
	}

	multi := zerolog.MultiLevelWriter(io.Writer(consoleWriter), fileWriter)
	return zerolog.New(multi).
		With().
		Timestamp().
		Logger(), nil
}

func ensureWritable(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory %q: %w", dir, err)
	}
	probe := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(probe, []byte("test"), 0644); err != nil {
		return fmt.Errorf("log directory %q is not writable: %w", dir, err)
	}
	_ = os.Remove(probe)
	return nil
}
