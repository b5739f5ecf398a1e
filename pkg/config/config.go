package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Server defaults
const (
	DefaultListen    = ":8080"
	DefaultOutputDir = "./exports"
)

// Export defaults
const (
	DefaultTimezone        = "UTC"
	DefaultPattern         = "%Y-%m-%d %H:%M:%S"
	DefaultMaxExportWindow = 0 // unlimited
)

// Retention defaults
const (
	DefaultRetentionMaxAge = 7 * 24 * time.Hour
	DefaultCleanupInterval = 1 * time.Hour
	DefaultMaxOutputBytes  = 1 << 30
)

// HTTP server timeouts. The write timeout is generous because exports
// stream whole histories in one response.
const (
	ServerReadTimeout  = 15 * time.Second
	ServerWriteTimeout = 5 * time.Minute
	ServerIdleTimeout  = 60 * time.Second
	ShutdownTimeout    = 5 * time.Second
)

// Duration wraps time.Duration so YAML and env values can be written as
// "36h" style strings. Plain integers are taken as nanoseconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration %q", value.Value)
	}
	*d = Duration(n)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the full statex service configuration.
type Config struct {
	Listen    string          `yaml:"listen"`
	OutputDir string          `yaml:"output_dir"`
	Snapshot  string          `yaml:"snapshot"`
	Export    ExportConfig    `yaml:"export"`
	Retention RetentionConfig `yaml:"retention"`
}

// ExportConfig carries the default rendering settings for exports.
type ExportConfig struct {
	Timezone     string   `yaml:"timezone"`
	Pattern      string   `yaml:"pattern"`
	DecimalComma bool     `yaml:"decimal_comma"`
	MaxWindow    Duration `yaml:"max_window"`
}

// RetentionConfig controls cleanup of the export output directory.
type RetentionConfig struct {
	Disabled       bool     `yaml:"disabled"`
	MaxAge         Duration `yaml:"max_age"`
	Interval       Duration `yaml:"interval"`
	MaxOutputBytes int64    `yaml:"max_output_bytes"`
}

// Load reads configuration from an optional YAML file, applies
// environment overrides and defaults, and validates the result. An
// empty path skips the file and uses environment plus defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.Listen = getEnv("STATEX_LISTEN", c.Listen)
	c.OutputDir = getEnv("STATEX_OUTPUT_DIR", c.OutputDir)
	c.Snapshot = getEnv("STATEX_SNAPSHOT", c.Snapshot)
	c.Export.Timezone = getEnv("STATEX_TIMEZONE", c.Export.Timezone)
	c.Export.Pattern = getEnv("STATEX_PATTERN", c.Export.Pattern)
	c.Export.MaxWindow = getEnvDuration("STATEX_MAX_EXPORT_WINDOW", c.Export.MaxWindow)
	c.Retention.MaxAge = getEnvDuration("STATEX_RETENTION_MAX_AGE", c.Retention.MaxAge)
	c.Retention.Interval = getEnvDuration("STATEX_CLEANUP_INTERVAL", c.Retention.Interval)
	c.Retention.MaxOutputBytes = getEnvInt64("STATEX_MAX_OUTPUT_BYTES", c.Retention.MaxOutputBytes)

	if v := os.Getenv("STATEX_DECIMAL_COMMA"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			logrus.Warnf("invalid value for STATEX_DECIMAL_COMMA: %q, keeping %v", v, c.Export.DecimalComma)
		} else {
			c.Export.DecimalComma = parsed
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if c.Export.Timezone == "" {
		c.Export.Timezone = DefaultTimezone
	}
	if c.Export.Pattern == "" {
		c.Export.Pattern = DefaultPattern
	}
	if c.Retention.MaxAge == 0 {
		c.Retention.MaxAge = Duration(DefaultRetentionMaxAge)
	}
	if c.Retention.Interval == 0 {
		c.Retention.Interval = Duration(DefaultCleanupInterval)
	}
	if c.Retention.MaxOutputBytes == 0 {
		c.Retention.MaxOutputBytes = DefaultMaxOutputBytes
	}
}

// Validate rejects configurations the server could not honor.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Export.Timezone); err != nil {
		return fmt.Errorf("export.timezone: unknown timezone %q", c.Export.Timezone)
	}
	if c.Export.MaxWindow < 0 {
		return fmt.Errorf("export.max_window must not be negative")
	}
	if c.Retention.MaxAge < 0 {
		return fmt.Errorf("retention.max_age must not be negative")
	}
	if !c.Retention.Disabled && c.Retention.Interval <= 0 {
		return fmt.Errorf("retention.interval must be positive when retention is enabled")
	}
	if c.Retention.MaxOutputBytes < 0 {
		return fmt.Errorf("retention.max_output_bytes must not be negative")
	}
	return nil
}

// getEnv gets a string from an environment variable or returns the
// current value.
func getEnv(key, current string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return current
}

// getEnvInt64 gets an int64 from an environment variable or returns the
// current value.
func getEnvInt64(key string, current int64) int64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
			return parsed
		}
		logrus.Warnf("invalid value for %s: %q, keeping %d", key, val, current)
	}
	return current
}

// getEnvDuration gets a duration from an environment variable or
// returns the current value.
func getEnvDuration(key string, current Duration) Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return Duration(parsed)
		}
		logrus.Warnf("invalid value for %s: %q, keeping %v", key, val, current.Std())
	}
	return current
}
