package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// SimulationConfig holds the defaults applied to Monte Carlo runs.
type SimulationConfig struct {
	Iterations    int    `validate:"gte=1,ltefield=MaxIterations"`
	Workers       int    `validate:"gte=1"`
	Seed          uint64 // 0 seeds from the clock
	MaxIterations int    `validate:"gte=1"`
	HistogramBins int    `validate:"gte=1,lte=200"`
	IncludeData   bool   // return raw simulated values from MCP tools
}

// AppConfig holds the complete application configuration.
type AppConfig struct {
	DataPath   string `validate:"required"`
	LogDir     string `validate:"required"`
	Simulation SimulationConfig
}

// DefaultSimulation returns the simulation settings used when no environment
// variable overrides them.
func DefaultSimulation() SimulationConfig {
	return SimulationConfig{
		Iterations:    5000,
		Workers:       runtime.NumCPU(),
		MaxIterations: 1_000_000,
		HistogramBins: 20,
	}
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// The executable's directory wins over the working directory: MCP hosts
	// rarely start servers from a meaningful cwd.
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	dataPath := getEnv("DATA_PATH", "")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	defaults := DefaultSimulation()
	cfg := &AppConfig{
		DataPath: dataPath,
		LogDir:   getEnv("LOGS_FOLDER", filepath.Join(dataPath, "logs")),
		Simulation: SimulationConfig{
			Iterations:    getEnvInt("SIM_ITERATIONS", defaults.Iterations),
			Workers:       getEnvInt("SIM_WORKERS", defaults.Workers),
			Seed:          getEnvUint64("SIM_SEED", defaults.Seed),
			MaxIterations: getEnvInt("MAX_ITERATIONS", defaults.MaxIterations),
			HistogramBins: getEnvInt("HISTOGRAM_BINS", defaults.HistogramBins),
			IncludeData:   getEnvBool("SIM_INCLUDE_DATA", defaults.IncludeData),
		},
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring non-integer setting")
	}
	return fallback
}

func getEnvUint64(key string, fallback uint64) uint64 {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.ParseUint(value, 10, 64); err == nil {
			return n
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring non-numeric setting")
	}
	return fallback
}
