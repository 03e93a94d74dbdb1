package runtimeconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Environment overrides applied after the file is decoded.
const (
	EnvBaseURL   = "LOCALIZE_BASE_URL"
	EnvOutputDir = "LOCALIZE_OUTPUT_DIR"
	EnvLogLevel  = "LOCALIZE_LOG_LEVEL"
	EnvLogFormat = "LOCALIZE_LOG_FORMAT"
	EnvWorkers   = "LOCALIZE_WORKERS"
)

// ErrConfigNotFound is returned when the config file does not exist.
var ErrConfigNotFound = errors.New("localize config: file not found")

// Load decodes the TOML file at path onto DefaultConfig, loads a .env file
// sitting next to it when present, applies environment overrides and
// validates the result. A relative paths.root is resolved against the
// config file's directory.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
	}
	if err != nil {
		return Config{}, fmt.Errorf("localize config: read %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := loadDotEnv(filepath.Join(dir, ".env")); err != nil {
		return Config{}, err
	}

	cfg, err := Decode(data)
	if err != nil {
		return Config{}, fmt.Errorf("localize config: %s: %w", path, err)
	}
	if cfg.Paths.Root == "" {
		cfg.Paths.Root = "."
	}
	if !filepath.IsAbs(cfg.Paths.Root) {
		cfg.Paths.Root = filepath.Join(dir, cfg.Paths.Root)
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode parses TOML onto DefaultConfig. Unknown keys are rejected.
func Decode(data []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("unknown keys: %s", strict.String())
		}
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return Config{}, fmt.Errorf("line %d column %d: %w", row, col, err)
		}
		return Config{}, err
	}
	return cfg, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("localize config: load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides settings from the environment through lookup.
func (cfg *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		return nil
	}
	if value, ok := lookup(EnvBaseURL); ok && strings.TrimSpace(value) != "" {
		cfg.BaseURL = strings.TrimSpace(value)
	}
	if value, ok := lookup(EnvOutputDir); ok && strings.TrimSpace(value) != "" {
		cfg.Paths.Output = strings.TrimSpace(value)
	}
	if value, ok := lookup(EnvLogLevel); ok && strings.TrimSpace(value) != "" {
		cfg.Logging.Level = strings.TrimSpace(value)
	}
	if value, ok := lookup(EnvLogFormat); ok && strings.TrimSpace(value) != "" {
		cfg.Logging.Format = strings.TrimSpace(value)
	}
	if value, ok := lookup(EnvWorkers); ok && strings.TrimSpace(value) != "" {
		workers, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("localize config: %s: %w", EnvWorkers, err)
		}
		cfg.Build.Workers = workers
	}
	return nil
}
