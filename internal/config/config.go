// Package config provides configuration loading from environment variables
// and an optional YAML file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/usestring/redcap-mcp/pkg/client"
)

// Tool output limit defaults
const (
	DefaultQueryLimitValue = 100
	MaxQueryLimitValue     = 5000
	DefaultFileMaxBytes    = 1 << 20
)

// EnvConfigFile names an optional YAML file whose values override the environment.
const EnvConfigFile = "REDCAP_CONFIG"

// Config holds all configuration for the REDCap MCP server and CLI.
type Config struct {
	Host              string        `yaml:"host"`                // REDCAP_HOST
	Token             string        `yaml:"token"`               // REDCAP_TOKEN
	Format            string        `yaml:"format"`              // REDCAP_FORMAT, default "json"
	CacheEnabled      bool          `yaml:"cache"`               // REDCAP_CACHE=ON
	CacheMaxItems     int           `yaml:"cache_max_items"`     // REDCAP_CACHE_MAX_ITEMS, default 256
	HTTPClientTimeout time.Duration `yaml:"http_client_timeout"` // HTTP_CLIENT_TIMEOUT_MS, default 60000ms

	// Tool output limits
	DefaultQueryLimit int `yaml:"default_query_limit"` // DEFAULT_QUERY_LIMIT
	MaxQueryLimit     int `yaml:"max_query_limit"`     // MAX_QUERY_LIMIT
	FileMaxBytes      int `yaml:"file_max_bytes"`      // FILE_MAX_BYTES, default 1MiB

	// Logging configuration
	LogLevel      string `yaml:"log_level"`       // LOG_LEVEL, default "info"
	LogFile       string `yaml:"log_file"`        // LOG_FILE, default "" (stderr only)
	LogMaxSizeMB  int    `yaml:"log_max_size_mb"` // LOG_MAX_SIZE_MB, default 10
	LogMaxBackups int    `yaml:"log_max_backups"` // LOG_MAX_BACKUPS, default 5
	LogMaxAgeDays int    `yaml:"log_max_age_days"`
	LogCompress   bool   `yaml:"log_compress"`
}

// Load reads configuration from environment variables with sensible defaults.
// If REDCAP_CONFIG names a file, its values are applied on top.
func Load() (*Config, error) {
	cfg := &Config{
		Host:              getEnvString(client.EnvHost, ""),
		Token:             getEnvString(client.EnvToken, ""),
		Format:            getEnvString(client.EnvFormat, string(client.FormatJSON)),
		CacheEnabled:      client.CacheEnabledFromEnv(),
		CacheMaxItems:     getEnvInt("REDCAP_CACHE_MAX_ITEMS", client.DefaultCacheMaxItems),
		HTTPClientTimeout: getEnvDurationMs("HTTP_CLIENT_TIMEOUT_MS", 60000),

		DefaultQueryLimit: getEnvInt("DEFAULT_QUERY_LIMIT", DefaultQueryLimitValue),
		MaxQueryLimit:     getEnvInt("MAX_QUERY_LIMIT", MaxQueryLimitValue),
		FileMaxBytes:      getEnvInt("FILE_MAX_BYTES", DefaultFileMaxBytes),

		LogLevel:      getEnvString("LOG_LEVEL", "info"),
		LogFile:       getEnvString("LOG_FILE", ""),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 10),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 28),
		LogCompress:   getEnvBool("LOG_COMPRESS", true),
	}

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadFile overlays the YAML file at path. Keys absent from the file keep
// their current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// RequireJSON reports an error unless the configured format is json.
// The CLI and the MCP tools decode every export as JSON.
func (c *Config) RequireJSON() error {
	if f := client.Format(strings.ToLower(c.Format)); f != client.FormatJSON {
		return fmt.Errorf("unsupported %s %q: only json is supported", client.EnvFormat, c.Format)
	}
	return nil
}

// ClientConfig converts c into the REDCap client configuration.
// Client logs go to logger at debug level.
func (c *Config) ClientConfig(logger *slog.Logger) *client.Config {
	cfg := client.NewConfig(client.Options{
		Host:     c.Host,
		Token:    c.Token,
		Format:   client.Format(strings.ToLower(c.Format)),
		Logger:   logger,
		LogLevel: slog.LevelDebug,
	})
	cfg.CacheEnabled = c.CacheEnabled
	cfg.CacheMaxItems = c.CacheMaxItems
	return cfg
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultVal
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDurationMs(key string, defaultMs int) time.Duration {
	ms := getEnvInt(key, defaultMs)
	return time.Duration(ms) * time.Millisecond
}
