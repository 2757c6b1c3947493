// Package config loads lockscan settings from a .lockscan.toml file and the
// environment.
//
// Precedence, lowest to highest: built-in defaults, the config file,
// environment variables, command-line flags (applied by the CLI).
//
//	[api]
//	url = "https://api.example.com"
//	timeout = "30s"
//	max_retries = 3
//
//	[scan]
//	fail_on_critical = true
//	fail_on_high = false
//	exclude = ["**/fixtures/**"]
//
//	[cache]
//	dir = "~/.cache/lockscan"
//	ttl = "1h"
//	redis_url = "redis://localhost:6379/0"
//
//	[server]
//	addr = ":8080"
//
// The API key is never read from the file; set LOCKSCAN_API_KEY.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	lserrors "github.com/matzehuels/lockscan/pkg/errors"
	lsio "github.com/matzehuels/lockscan/pkg/io"
	"github.com/matzehuels/lockscan/pkg/report"
	"github.com/matzehuels/lockscan/pkg/scan"
)

// FileName is the config file searched for in the scanned directory.
const FileName = ".lockscan.toml"

// Environment variables.
const (
	EnvAPIKey   = "LOCKSCAN_API_KEY"
	EnvAPIURL   = "LOCKSCAN_API_URL"
	EnvRedisURL = "LOCKSCAN_REDIS_URL"
	EnvCacheDir = "LOCKSCAN_CACHE_DIR"
)

// Defaults.
const (
	DefaultTimeout    = scan.DefaultTimeout
	DefaultMaxRetries = scan.DefaultMaxRetries
	DefaultCacheTTL   = scan.DefaultCacheTTL
	DefaultAddr       = ":8080"

	maxRetriesLimit = 10
)

// Duration is a time.Duration decoded from a Go duration string ("30s").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config is the full lockscan configuration.
type Config struct {
	API    APIConfig    `toml:"api"`
	Scan   ScanConfig   `toml:"scan"`
	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`

	// APIKey comes from the environment only.
	APIKey string `toml:"-"`

	// Path is the file the config was loaded from, if any.
	Path string `toml:"-"`
}

type APIConfig struct {
	URL        string   `toml:"url"`
	Timeout    Duration `toml:"timeout"`
	MaxRetries int      `toml:"max_retries"`
}

type ScanConfig struct {
	FailOnCritical bool     `toml:"fail_on_critical"`
	FailOnHigh     bool     `toml:"fail_on_high"`
	Exclude        []string `toml:"exclude"`
}

type CacheConfig struct {
	Dir      string   `toml:"dir"`
	TTL      Duration `toml:"ttl"`
	RedisURL string   `toml:"redis_url"`
	Disabled bool     `toml:"disabled"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	c := &Config{}
	c.WithDefaults()
	return c
}

// Find returns the config file in dir, or "" when there is none.
func Find(dir string) string {
	p := filepath.Join(dir, FileName)
	if info, err := os.Stat(p); err == nil && !info.IsDir() {
		return p
	}
	return ""
}

// Load reads the file at path (defaults only when path is empty), applies
// the process environment and defaults, and validates the result.
func Load(path string) (*Config, error) {
	c := &Config{}
	if path != "" {
		if err := c.decodeFile(path); err != nil {
			return nil, err
		}
	}
	c.ApplyEnv(os.Getenv)
	c.WithDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) decodeFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return lserrors.Wrap(lserrors.ErrCodeFileNotFound, err, "config file %s not found", path)
		}
		return lserrors.Wrap(lserrors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return lserrors.New(lserrors.ErrCodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	c.Path = path
	return nil
}

// ApplyEnv overrides file values with environment variables read through
// getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvAPIKey)); v != "" {
		c.APIKey = v
	}
	if v := getenv(EnvAPIURL); v != "" {
		c.API.URL = v
	}
	if v := getenv(EnvRedisURL); v != "" {
		c.Cache.RedisURL = v
	}
	if v := getenv(EnvCacheDir); v != "" {
		c.Cache.Dir = v
	}
}

// WithDefaults fills zero fields.
func (c *Config) WithDefaults() {
	if c.API.Timeout.Duration == 0 {
		c.API.Timeout.Duration = DefaultTimeout
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultMaxRetries
	}
	if c.Cache.TTL.Duration == 0 {
		c.Cache.TTL.Duration = DefaultCacheTTL
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	c.Cache.Dir = expandHome(c.Cache.Dir)
}

// Validate checks values that can be checked without network access. The
// API URL and key are validated by the scan client, since commands that do
// not scan do not need them.
func (c *Config) Validate() error {
	if c.API.Timeout.Duration < 0 {
		return lserrors.New(lserrors.ErrCodeInvalidConfig, "api.timeout must be positive, got %s", c.API.Timeout)
	}
	if c.API.MaxRetries > maxRetriesLimit {
		return lserrors.New(lserrors.ErrCodeInvalidConfig, "api.max_retries must be at most %d, got %d", maxRetriesLimit, c.API.MaxRetries)
	}
	if c.Cache.TTL.Duration < 0 {
		return lserrors.New(lserrors.ErrCodeInvalidConfig, "cache.ttl must be positive, got %s", c.Cache.TTL)
	}
	if _, err := lsio.NewMatcher(c.Scan.Exclude); err != nil {
		return err
	}
	return nil
}

// Policy returns the build-failure policy.
func (c *Config) Policy() report.Policy {
	return report.Policy{FailOnCritical: c.Scan.FailOnCritical, FailOnHigh: c.Scan.FailOnHigh}
}

// ScanConfig returns the scan client settings. Cache, keyer and logger are
// left for the caller.
func (c *Config) ScanConfig() scan.Config {
	return scan.Config{
		BaseURL:    c.API.URL,
		APIKey:     c.APIKey,
		Timeout:    c.API.Timeout.Duration,
		MaxRetries: c.API.MaxRetries,
		CacheTTL:   c.Cache.TTL.Duration,
	}
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
