// Package config loads the engine configuration from an optional YAML file,
// AMRIE_* environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete configuration.
type Config struct {
	Catalog     CatalogConfig     `mapstructure:"catalog"`
	Rules       RulesConfig       `mapstructure:"rules"`
	Breakpoints BreakpointsConfig `mapstructure:"breakpoints"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Engine      EngineConfig      `mapstructure:"engine"`
	Audit       AuditConfig       `mapstructure:"audit"`
	Server      ServerConfig      `mapstructure:"server"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// CatalogConfig locates the tab-delimited reference catalogs.
type CatalogConfig struct {
	AntibioticsPath string `mapstructure:"antibiotics_path"`
	OrganismsPath   string `mapstructure:"organisms_path"`
}

// RulesConfig locates the expert rule tables. An empty path selects the
// embedded tables.
type RulesConfig struct {
	Path string `mapstructure:"path"`
}

// BreakpointsConfig locates the breakpoint table. Without one, measured
// values are reported unresolved.
type BreakpointsConfig struct {
	Path string `mapstructure:"path"`
}

// CacheConfig sizes the antibiotic code decode cache.
type CacheConfig struct {
	DecodeSize int `mapstructure:"decode_size"`
}

// EngineConfig bounds batch evaluation.
type EngineConfig struct {
	MaxConcurrency int `mapstructure:"max_concurrency"`
}

// AuditConfig controls the decision audit trail.
type AuditConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DBPath  string `mapstructure:"db_path"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	RateLimit    float64       `mapstructure:"rate_limit"`
	RateBurst    int           `mapstructure:"rate_burst"`
}

// Address returns host:port.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Manager loads and holds the configuration.
type Manager struct {
	v          *viper.Viper
	configFile string
	config     *Config
}

// NewManager loads configuration. When configFile is empty, amrie.yaml is
// searched for in the usual locations and its absence is not an error.
func NewManager(configFile string) (*Manager, error) {
	m := &Manager{configFile: configFile}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig() error {
	v := viper.New()

	if m.configFile != "" {
		v.SetConfigFile(m.configFile)
	} else {
		v.SetConfigName("amrie")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/amrie/")
	}

	v.SetEnvPrefix("AMRIE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using defaults and environment variables
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.v = v
	m.config = config
	return nil
}

// DefaultDataDir is where the audit database lives unless configured.
func DefaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".amrie"
	}
	return filepath.Join(homeDir, ".amrie")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("catalog.antibiotics_path", "data/Antibiotics.txt")
	v.SetDefault("catalog.organisms_path", "data/Organisms.txt")

	v.SetDefault("rules.path", "")
	v.SetDefault("breakpoints.path", "")

	v.SetDefault("cache.decode_size", 4096)
	v.SetDefault("engine.max_concurrency", 8)

	v.SetDefault("audit.enabled", false)
	v.SetDefault("audit.db_path", filepath.Join(DefaultDataDir(), "audit.db"))

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.rate_limit", 50.0)
	v.SetDefault("server.rate_burst", 100)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *Config {
	return m.config
}

// ConfigFileUsed returns the file the configuration was read from, if any.
func (m *Manager) ConfigFileUsed() string {
	return m.v.ConfigFileUsed()
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	return m.config.Validate()
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Catalog.AntibioticsPath == "" {
		return errors.New("antibiotic catalog path is required")
	}
	if c.Catalog.OrganismsPath == "" {
		return errors.New("organism catalog path is required")
	}

	if c.Cache.DecodeSize <= 0 {
		return fmt.Errorf("invalid decode cache size: %d", c.Cache.DecodeSize)
	}
	if c.Engine.MaxConcurrency <= 0 {
		return fmt.Errorf("invalid max concurrency: %d", c.Engine.MaxConcurrency)
	}

	if c.Audit.Enabled && c.Audit.DBPath == "" {
		return errors.New("audit database path is required when audit is enabled")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.RateLimit < 0 || c.Server.RateBurst < 0 {
		return errors.New("rate limit and burst must not be negative")
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	return nil
}
