package client

import (
	"log/slog"
	"os"
	"strings"
)

// Format is the REDCap data format sent as the "format" payload key.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
	FormatCSV  Format = "csv"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvHost   = "REDCAP_HOST"
	EnvToken  = "REDCAP_TOKEN"
	EnvFormat = "REDCAP_FORMAT"
	EnvCache  = "REDCAP_CACHE"
)

// DefaultCacheMaxItems bounds the response cache when CacheMaxItems is unset.
const DefaultCacheMaxItems = 256

// Config holds the connection parameters for a REDCap project.
// A Client copies its Config at construction, so later changes have no effect.
type Config struct {
	Host   string // API endpoint, e.g. https://redcap.example.org/api/
	Token  string // project API token
	// Format is sent on exports. Typed operations decode JSON, so any other
	// format is only usable through PostRaw. Imports always send JSON data.
	Format Format

	// Logger receives request/response logs. Nil means slog.Default().
	Logger *slog.Logger
	// LogLevel is the level pipeline logs are emitted at.
	LogLevel slog.Level

	CacheEnabled  bool
	CacheMaxItems int
}

// Options are the recognised construction options for NewConfig.
type Options struct {
	Host   string
	Token  string
	Format Format
	Logger *slog.Logger
	// LogLevel defaults to slog.LevelDebug when nil.
	LogLevel slog.Leveler
}

// NewConfig builds a Config from opts. Format defaults to json.
// Host and token are not validated; an empty value surfaces as a request failure.
func NewConfig(opts Options) *Config {
	cfg := &Config{
		Host:          opts.Host,
		Token:         opts.Token,
		Format:        opts.Format,
		Logger:        opts.Logger,
		LogLevel:      slog.LevelDebug,
		CacheMaxItems: DefaultCacheMaxItems,
	}
	if cfg.Format == "" {
		cfg.Format = FormatJSON
	}
	if opts.LogLevel != nil {
		cfg.LogLevel = opts.LogLevel.Level()
	}
	return cfg
}

// ConfigFromEnv builds a Config from REDCAP_HOST, REDCAP_TOKEN and REDCAP_FORMAT.
// Response memoization is enabled when REDCAP_CACHE is "ON".
func ConfigFromEnv() *Config {
	cfg := NewConfig(Options{
		Host:   os.Getenv(EnvHost),
		Token:  os.Getenv(EnvToken),
		Format: Format(strings.ToLower(os.Getenv(EnvFormat))),
	})
	cfg.CacheEnabled = CacheEnabledFromEnv()
	return cfg
}

// CacheEnabledFromEnv reports whether REDCAP_CACHE is set to "ON".
func CacheEnabledFromEnv() bool {
	return os.Getenv(EnvCache) == "ON"
}

func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
