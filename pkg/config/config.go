// Package config loads the fulfillment engine's YAML configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Storage drivers
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the full engine configuration
type Config struct {
	Storage    StorageConfig    `yaml:"storage"`
	Data       DataConfig       `yaml:"data"`
	Server     ServerConfig     `yaml:"server"`
	Allocation AllocationConfig `yaml:"allocation"`
	Log        LogConfig        `yaml:"log"`
}

// StorageConfig selects where stock, demands and submissions live
type StorageConfig struct {
	// Driver is one of memory, sqlite or postgres
	Driver string `yaml:"driver"`
	// DSN is a file path for sqlite and a connection string for postgres
	DSN string `yaml:"dsn,omitempty"`
}

// DataConfig points at CSV seed data
type DataConfig struct {
	// Dir holds transactions.csv and demands.csv. Empty means no seed data.
	Dir string `yaml:"dir,omitempty"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// AllocationConfig tunes session behavior
type AllocationConfig struct {
	RevalidateBeforeSubmit bool `yaml:"revalidate_before_submit"`
	HideEmptyLocations     bool `yaml:"hide_empty_locations"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given
func Default() Config {
	return Config{
		Storage: StorageConfig{Driver: DriverMemory},
		Server:  ServerConfig{Addr: ":8080"},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads a YAML file over the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field values
func (c Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case DriverMemory:
	case DriverSQLite, DriverPostgres:
		if c.Storage.DSN == "" {
			errs = append(errs, fmt.Errorf("storage.dsn is required for driver %q", c.Storage.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver must be one of memory, sqlite, postgres, got %q", c.Storage.Driver))
	}

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr cannot be empty"))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

// ParseLevel maps a level name to its slog level
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log.level must be debug, info, warn or error, got %q", level)
	}
}
