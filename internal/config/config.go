package config

import (
	"fmt"
	"os"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Backend  BackendConfig  `yaml:"backend"`
	Database DatabaseConfig `yaml:"database"`
	Cache    CacheConfig    `yaml:"cache"`
	Import   ImportConfig   `yaml:"import"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

type BackendConfig struct {
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type CacheConfig struct {
	Path string `yaml:"path"`
}

type ImportConfig struct {
	Concurrency int    `yaml:"concurrency"`
	Delimiter   string `yaml:"delimiter"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	setDefaults(cfg)
	applyEnv(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8090"
	}
	if cfg.Backend.Timeout == 0 {
		cfg.Backend.Timeout = 30 * time.Second
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "/var/lib/bulkmsg-web/app.db"
	}
	if cfg.Cache.Path == "" {
		cfg.Cache.Path = "/var/lib/bulkmsg-web/cache.db"
	}
	if cfg.Import.Concurrency == 0 {
		cfg.Import.Concurrency = 5
	}
	if cfg.Import.Delimiter == "" {
		cfg.Import.Delimiter = ","
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// applyEnv lets deployment environments override sensitive values
// without writing them into the config file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("BULKMSG_BACKEND_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("BULKMSG_BACKEND_TOKEN"); v != "" {
		cfg.Backend.Token = v
	}
	if v := os.Getenv("BULKMSG_LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
}

func validate(cfg *Config) error {
	if cfg.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	if cfg.Import.Concurrency < 0 {
		return fmt.Errorf("import.concurrency must not be negative")
	}
	if utf8.RuneCountInString(cfg.Import.Delimiter) != 1 {
		return fmt.Errorf("import.delimiter must be a single character")
	}
	return nil
}

// DelimiterRune returns the configured import delimiter as a rune.
// Valid configs always carry exactly one.
func (c *Config) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Import.Delimiter)
	return r
}
