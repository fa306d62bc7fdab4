// ABOUTME: Configuration loading and parsing for the identity admin tooling
// ABOUTME: Supports YAML or TOML files with env var expansion and environment overrides

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

// Defaults applied before a file is read.
const (
	DefaultConnection    = "identity.db"
	DefaultBcryptCost    = 10
	DefaultRecoveryCodes = 10
)

// Config represents the complete configuration
type Config struct {
	Database DatabaseConfig `yaml:"database" toml:"database"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
	Admin    AdminConfig    `yaml:"admin" toml:"admin"`
}

// DatabaseConfig holds the document database connection settings
type DatabaseConfig struct {
	// Connection is a docdb connection descriptor: a path, ":memory:", or a
	// key=value list.
	Connection string `yaml:"connection" toml:"connection" env:"IDENTITY_DATABASE"`
	Driver     string `yaml:"driver" toml:"driver" env:"IDENTITY_DATABASE_DRIVER"`

	BusyTimeout time.Duration `yaml:"-" toml:"-"`

	// Raw string value for unmarshaling
	BusyTimeoutRaw string `yaml:"busy_timeout" toml:"busy_timeout" env:"IDENTITY_DATABASE_BUSY_TIMEOUT"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level" env:"IDENTITY_LOG_LEVEL"`
	Format string `yaml:"format" toml:"format" env:"IDENTITY_LOG_FORMAT"`
}

// AdminConfig holds settings used by the admin CLI
type AdminConfig struct {
	BcryptCost    int `yaml:"bcrypt_cost" toml:"bcrypt_cost" env:"IDENTITY_BCRYPT_COST"`
	RecoveryCodes int `yaml:"recovery_codes" toml:"recovery_codes" env:"IDENTITY_RECOVERY_CODES"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Connection: DefaultConnection},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Admin:    AdminConfig{BcryptCost: DefaultBcryptCost, RecoveryCodes: DefaultRecoveryCodes},
	}
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are decoded as TOML, everything else as YAML.
// Environment variables in the format ${VAR_NAME} are expanded, then
// IDENTITY_* variables override the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(expanded, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	default:
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv returns the defaults with IDENTITY_* overrides applied.
func FromEnv() (*Config, error) {
	cfg := Default()
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) finish() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := parseDurations(c); err != nil {
		return fmt.Errorf("parsing durations: %w", err)
	}

	if err := c.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	return nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.Connection) == "" {
		return fmt.Errorf("database.connection is required")
	}

	switch c.Database.Driver {
	case "", "sqlite", "sqlite3":
	default:
		return fmt.Errorf("database.driver must be sqlite or sqlite3, got %q", c.Database.Driver)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	if c.Admin.BcryptCost < 4 || c.Admin.BcryptCost > 31 {
		return fmt.Errorf("admin.bcrypt_cost must be between 4 and 31, got %d", c.Admin.BcryptCost)
	}

	if c.Admin.RecoveryCodes < 1 {
		return fmt.Errorf("admin.recovery_codes must be at least 1, got %d", c.Admin.RecoveryCodes)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	if cfg.Database.BusyTimeoutRaw == "" {
		return nil
	}

	d, err := time.ParseDuration(cfg.Database.BusyTimeoutRaw)
	if err != nil {
		return fmt.Errorf("parsing busy_timeout %q: %w", cfg.Database.BusyTimeoutRaw, err)
	}
	if d < 0 {
		return fmt.Errorf("busy_timeout %q must not be negative", cfg.Database.BusyTimeoutRaw)
	}
	cfg.Database.BusyTimeout = d
	return nil
}

// Descriptor returns the connection descriptor with the driver and busy
// timeout settings folded in.
func (d DatabaseConfig) Descriptor() string {
	if d.Driver == "" && d.BusyTimeout == 0 {
		return d.Connection
	}

	parts := []string{d.Connection}
	if !strings.Contains(d.Connection, "=") {
		parts[0] = "Filename=" + d.Connection
	}
	if d.Driver != "" {
		parts = append(parts, "Driver="+d.Driver)
	}
	if d.BusyTimeout > 0 {
		parts = append(parts, "BusyTimeout="+d.BusyTimeout.String())
	}
	return strings.Join(parts, ";")
}
