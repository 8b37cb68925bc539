// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"challenge-crawler/internal/model"
)

// Config holds all configuration for the application.
type Config struct {
	LogLevel          string        `mapstructure:"LOG_LEVEL"`
	DBURL             string        `mapstructure:"DB_URL"`
	GithubToken       string        `mapstructure:"GITHUB_TOKEN"`
	GithubAPIURL      string        `mapstructure:"GITHUB_API_URL"`
	RequestsPerSecond float64       `mapstructure:"GITHUB_REQUESTS_PER_SECOND"`
	Burst             int           `mapstructure:"GITHUB_BURST"`
	ScanConfigFile    string        `mapstructure:"SCAN_CONFIG_FILE"`
	ScanInterval      time.Duration `mapstructure:"SCAN_INTERVAL"`
	ScanConcurrency   int           `mapstructure:"SCAN_CONCURRENCY"`
	TreeDepthLimit    int           `mapstructure:"TREE_DEPTH_LIMIT"`
	FetchMaxAttempts  int           `mapstructure:"FETCH_MAX_ATTEMPTS"`
	FetchRetryDelay   time.Duration `mapstructure:"FETCH_RETRY_DELAY"`
	HTTPAddr          string        `mapstructure:"HTTP_ADDR"`
	MigrationsPath    string        `mapstructure:"MIGRATIONS_PATH"`

	Scans []model.ScanSpec `mapstructure:"-"`
}

// LoadConfig reads configuration from file and/or environment variables,
// then loads the scan list from ScanConfigFile.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// Set default values
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_URL", "")
	v.SetDefault("GITHUB_TOKEN", "")
	v.SetDefault("GITHUB_API_URL", "")
	v.SetDefault("GITHUB_REQUESTS_PER_SECOND", 0)
	v.SetDefault("GITHUB_BURST", 1)
	v.SetDefault("SCAN_CONFIG_FILE", "scans.yaml")
	v.SetDefault("SCAN_INTERVAL", "0s")
	v.SetDefault("SCAN_CONCURRENCY", 1)
	v.SetDefault("TREE_DEPTH_LIMIT", 300)
	v.SetDefault("FETCH_MAX_ATTEMPTS", 60)
	v.SetDefault("FETCH_RETRY_DELAY", "1s")
	v.SetDefault("HTTP_ADDR", "")
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")

	// Load from .env file if it exists
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // Ignore error if file not found

	// Bind environment variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	scans, err := LoadScans(cfg.ScanConfigFile)
	if err != nil {
		return nil, err
	}
	cfg.Scans = scans

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DBURL == "" {
		return errors.New("DB_URL is a required configuration field")
	}
	if c.ScanConcurrency < 1 {
		return errors.New("SCAN_CONCURRENCY must be at least 1")
	}
	if c.TreeDepthLimit < 1 {
		return errors.New("TREE_DEPTH_LIMIT must be at least 1")
	}
	if c.FetchMaxAttempts < 1 {
		return errors.New("FETCH_MAX_ATTEMPTS must be at least 1")
	}
	if c.ScanInterval < 0 || c.FetchRetryDelay < 0 {
		return errors.New("SCAN_INTERVAL and FETCH_RETRY_DELAY must not be negative")
	}
	if c.RequestsPerSecond < 0 {
		return errors.New("GITHUB_REQUESTS_PER_SECOND must not be negative")
	}
	return nil
}

// LoadScans reads the scan list from a YAML file with a top level "scans" key.
func LoadScans(path string) ([]model.ScanSpec, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading scan config %s: %w", path, err)
	}

	var file struct {
		Scans []model.ScanSpec `mapstructure:"scans"`
	}
	if err := v.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("decoding scan config %s: %w", path, err)
	}

	if len(file.Scans) == 0 {
		return nil, fmt.Errorf("scan config %s must contain at least one entry under 'scans'", path)
	}
	for i, s := range file.Scans {
		if s.Repository == "" {
			return nil, fmt.Errorf("scan %d: repository is required", i)
		}
		if len(s.Patterns) == 0 {
			return nil, fmt.Errorf("scan %s: at least one pattern is required", s.Repository)
		}
		if s.MaxLinesOfCode < 0 {
			return nil, fmt.Errorf("scan %s: max_loc must not be negative", s.Repository)
		}
	}
	return file.Scans, nil
}
