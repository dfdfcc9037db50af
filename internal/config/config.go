package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Symbols     string `yaml:"symbols"`
	From        string `yaml:"from"`
	Window      int    `yaml:"window"`
	Concurrency int    `yaml:"concurrency"`
	Output      struct {
		Format     string `yaml:"format"`
		WebhookURL string `yaml:"webhook_url"`
	} `yaml:"output"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	DataSource struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"data_source"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error; defaults and environment still apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("QUOTETRACK_SYMBOLS"); v != "" {
		cfg.Symbols = v
	}
	if v := os.Getenv("QUOTETRACK_FROM"); v != "" {
		cfg.From = v
	}
	if v := os.Getenv("QUOTETRACK_WINDOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Window = n
		}
	}
	if v := os.Getenv("QUOTETRACK_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Concurrency = n
		}
	}
	if v := os.Getenv("QUOTETRACK_FORMAT"); v != "" {
		cfg.Output.Format = v
	}
	if v := os.Getenv("QUOTETRACK_WEBHOOK_URL"); v != "" {
		cfg.Output.WebhookURL = v
	}
	if v := os.Getenv("QUOTETRACK_CRON"); v != "" {
		cfg.Schedule.RefreshCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("QUOTETRACK_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("QUOTETRACK_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.Symbols == "" {
		cfg.Symbols = "AAPL,MSFT,UBER,GOOG"
	}
	if cfg.Window == 0 {
		cfg.Window = 30
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = 4
	}
	if cfg.Output.Format == "" {
		cfg.Output.Format = "text"
	}
	if cfg.Schedule.RefreshCron == "" {
		cfg.Schedule.RefreshCron = "0 */30 * * * *"
	}

	return cfg, nil
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	if c.Symbols == "" {
		return fmt.Errorf("symbols is required")
	}
	if c.Window < 1 {
		return fmt.Errorf("window must be positive")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be positive")
	}
	switch c.Output.Format {
	case "text", "csv", "webhook":
	default:
		return fmt.Errorf("output.format must be text, csv or webhook")
	}
	if c.Output.Format == "webhook" && c.Output.WebhookURL == "" {
		return fmt.Errorf("output.webhook_url is required for webhook format")
	}
	return nil
}
