package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fbourgeois24/db-unified/pkg/dbunified"
)

// Config holds all application configuration
type Config struct {
	Database map[string]any `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Probe    ProbeConfig    `yaml:"probe"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ProbeConfig holds pre-connect reachability probe settings
type ProbeConfig struct {
	Enabled bool          `yaml:"enabled"`
	Timeout time.Duration `yaml:"timeout"`
}

// databaseEnv maps environment variables onto database mapping keys.
var databaseEnv = []struct {
	env string
	key string
}{
	{"DBU_TYPE", dbunified.KeyType},
	{"DBU_NAME", dbunified.KeyName},
	{"DBU_ADDR", dbunified.KeyAddr},
	{"DBU_PORT", dbunified.KeyPort},
	{"DBU_USER", dbunified.KeyUser},
	{"DBU_PASSWD", dbunified.KeyPassword},
	{"DBU_SSLMODE", dbunified.KeySSLMode},
	{"DBU_OPTIONS", dbunified.KeyOptions},
	{"DBU_SSL_CA", dbunified.KeySSLCA},
	{"DBU_SSL_KEY", dbunified.KeySSLKey},
	{"DBU_SSL_CERT", dbunified.KeySSLCert},
	{"DBU_SSL_VERIFY_CERT", dbunified.KeySSLVerifyCert},
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Database: map[string]any{},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Probe: ProbeConfig{
			Enabled: false,
			Timeout: dbunified.DefaultProbeTimeout,
		},
	}
}

// Load reads configuration from the YAML document at path (local path,
// file://, http(s):// or s3://) when path is not empty, then applies
// environment variable overrides.
func Load(ctx context.Context, path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		r, err := openReader(ctx, path, s3ConfigFromEnv())
		if err != nil {
			return nil, fmt.Errorf("open config %s: %w", path, err)
		}
		defer r.Close()

		if err := yaml.NewDecoder(r).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		if cfg.Database == nil {
			cfg.Database = map[string]any{}
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	for _, e := range databaseEnv {
		if value, ok := os.LookupEnv(e.env); ok {
			c.Database[e.key] = value
		}
	}
	c.Log.Level = getEnv("DBU_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("DBU_LOG_FORMAT", c.Log.Format)
	c.Probe.Enabled = getBoolEnv("DBU_PROBE_ENABLED", c.Probe.Enabled)
	c.Probe.Timeout = getDurationEnv("DBU_PROBE_TIMEOUT", c.Probe.Timeout)
}

// Validate checks that all configuration values are valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		errs = append(errs, fmt.Errorf("DBU_LOG_FORMAT must be 'json' or 'text', got '%s'", c.Log.Format))
	}

	if c.Probe.Enabled && c.Probe.Timeout <= 0 {
		errs = append(errs, errors.New("DBU_PROBE_TIMEOUT must be positive when the probe is enabled"))
	}

	_, hasKey := c.Database[dbunified.KeySSLKey]
	_, hasCert := c.Database[dbunified.KeySSLCert]
	if hasKey != hasCert {
		errs = append(errs, errors.New("ssl_key and ssl_cert must be set together"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Mapping returns a copy of the database section for dbunified.WithConfig.
func (c *Config) Mapping() dbunified.Mapping {
	m := make(dbunified.Mapping, len(c.Database))
	for k, v := range c.Database {
		m[k] = v
	}
	return m
}

// NewLogger builds the slog logger described by the log section.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// Prober returns the configured reachability probe, or nil when disabled.
func (c *Config) Prober() dbunified.Prober {
	if !c.Probe.Enabled {
		return nil
	}
	return dbunified.TCPProbe{Timeout: c.Probe.Timeout}
}

// Save writes cfg as YAML to path (local path, file:// or s3://).
func Save(ctx context.Context, cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	w, err := openWriter(ctx, path, s3ConfigFromEnv())
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return w.Close()
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("DBU_LOG_LEVEL must be 'debug', 'info', 'warn' or 'error', got '%s'", s)
	}
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
