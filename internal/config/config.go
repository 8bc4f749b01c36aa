package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds the daemon configuration. Values load from a YAML file and can
// be overridden by FOLDERIUM_* environment variables.
type Config struct {
	// HTTP gateway settings
	HTTPPort int `yaml:"http_port"`

	// Authentication settings
	JWTSecret     string `yaml:"jwt_secret"`
	JWTSecretFile string `yaml:"jwt_secret_file"`

	// Persistence settings. Empty Postgres means the in-memory store.
	Postgres string `yaml:"postgres"`

	// Cloud backend settings. Empty CloudURL means the local stand-in.
	CloudURL string `yaml:"cloud_url"`

	// Metrics settings
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds the OpenTelemetry exporter settings
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// Default returns the development configuration.
func Default() *Config {
	return &Config{
		HTTPPort: 8080,
	}
}

// Load reads the config file at path, or the defaults when path is empty,
// then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// Save writes the config as YAML.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("FOLDERIUM_HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.HTTPPort = port
		}
	}
	if v := os.Getenv("FOLDERIUM_JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
	if v := os.Getenv("FOLDERIUM_POSTGRES"); v != "" {
		c.Postgres = v
	}
	if v := os.Getenv("FOLDERIUM_CLOUD_URL"); v != "" {
		c.CloudURL = v
	}
	if v := os.Getenv("FOLDERIUM_METRICS_ENDPOINT"); v != "" {
		c.Metrics.Enabled = true
		c.Metrics.Endpoint = v
	}
}
