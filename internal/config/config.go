// Package config handles loading and parsing application configuration.
// It supports two sources (in priority order):
//  1. An environment variable:  CONFIG_PATH=/path/to/config.yaml
//  2. A command-line flag:      --config=/path/to/config.yaml
//
// The parsed values are returned as a *Config pointer so the struct is
// shared by reference rather than copied everywhere.
package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Storage drivers understood by main.
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Config is the root configuration structure.
// Every field maps to a key in the YAML file AND can be overridden
// by the corresponding environment variable (env:"...").
//
// env-required:"true" means the app refuses to start if that value is
// missing — better to crash at boot than to silently use a wrong default.
type Config struct {
	// Env controls log format and verbosity.
	// Valid values: "dev", "staging", "prod"
	Env string `yaml:"env" env:"ENV" env-required:"true"`

	// StorageDriver selects the backend: "sqlite" (durable, default) or
	// "memory" (ephemeral, for demos and local experiments).
	StorageDriver string `yaml:"storage_driver" env:"STORAGE_DRIVER" env-default:"sqlite"`

	// StoragePath is the filesystem path to the SQLite .db file.
	// Required when StorageDriver is "sqlite".
	StoragePath string `yaml:"storage_path" env:"STORAGE_PATH"`

	HTTPServer `yaml:"http_server"`

	QRCode QRCode `yaml:"qrcode"`
}

// HTTPServer holds settings specific to the HTTP server.
// Nested under http_server: in the YAML file.
type HTTPServer struct {
	// Addr is the TCP address the server listens on, e.g. "localhost:8082".
	Addr string `yaml:"address" env:"HTTP_SERVER_ADDR" env-required:"true"`

	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

// QRCode controls rendering of credential QR codes.
type QRCode struct {
	// Size is the PNG edge length in pixels.
	Size int `yaml:"size" env:"QRCODE_SIZE" env-default:"256"`
}

// Load reads the config file at path (plus environment overrides) and
// checks the cross-field rules cleanenv cannot express with tags.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}

	switch cfg.StorageDriver {
	case DriverSQLite:
		if cfg.StoragePath == "" {
			return nil, fmt.Errorf("storage_path is required for the %q driver", DriverSQLite)
		}
	case DriverMemory:
	default:
		return nil, fmt.Errorf("unknown storage_driver %q", cfg.StorageDriver)
	}

	if cfg.QRCode.Size <= 0 {
		return nil, fmt.Errorf("qrcode.size must be positive, got %d", cfg.QRCode.Size)
	}

	return &cfg, nil
}

// MustLoad reads, validates, and returns the application config.
//
// Functions prefixed with "Must" are allowed to fatal on failure.
// If this function returns, the config is valid.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to the configuration YAML file")
		flag.Parse()
		configPath = *flags
	}

	if configPath == "" {
		log.Fatal("config path is not set: use --config flag or CONFIG_PATH env var")
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist: %s", configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err.Error())
	}

	return cfg
}
