package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment override, e.g. MASCOTAS_API_BASE_URL.
const EnvPrefix = "MASCOTAS"

// Config represents ~/.mascotas/config.toml.
type Config struct {
	DefaultProfile  string   `toml:"default_profile" envconfig:"DEFAULT_PROFILE"`
	APIBaseURL      string   `toml:"api_base_url" envconfig:"API_BASE_URL"`
	GeorefBaseURL   string   `toml:"georef_base_url" envconfig:"GEOREF_BASE_URL"`
	RequestTimeout  Duration `toml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
	GeocodeTimeout  Duration `toml:"geocode_timeout" envconfig:"GEOCODE_TIMEOUT"`
	GeocodeRate     float64  `toml:"geocode_rate" envconfig:"GEOCODE_RATE"`
	GeocodeCacheTTL Duration `toml:"geocode_cache_ttl" envconfig:"GEOCODE_CACHE_TTL"`
	RefreshInterval Duration `toml:"refresh_interval" envconfig:"REFRESH_INTERVAL"`
	LogLevel        string   `toml:"log_level" envconfig:"LOG_LEVEL"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		APIBaseURL:      "http://localhost:8080/api",
		GeorefBaseURL:   "https://apis.datos.gob.ar/georef/api",
		RequestTimeout:  Duration(15 * time.Second),
		GeocodeTimeout:  Duration(10 * time.Second),
		GeocodeRate:     5,
		GeocodeCacheTTL: Duration(30 * 24 * time.Hour),
		RefreshInterval: Duration(2 * time.Minute),
		LogLevel:        "info",
	}
}

// Load reads config from path over the defaults. A missing file is an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Resolve builds the effective configuration: defaults, then the config file
// if present, then an optional dotenv file, then MASCOTAS_* variables.
func Resolve(path, envFile string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err = Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	return cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
