// Package config loads CLI configuration from flags, the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"playsarchiver/internal/adapters/wayback"
)

// EnvPrefix prefixes every environment variable, e.g. PLAYS_OUTPUT_DIR.
const EnvPrefix = "PLAYS"

// Configuration keys. They double as flag names.
const (
	KeyUsername      = "username"
	KeyHeadless      = "headless"
	KeyOutputDir     = "output-dir"
	KeyOverwrite     = "overwrite"
	KeyDryRun        = "dry-run"
	KeyDebug         = "debug"
	KeyLogLevel      = "log-level"
	KeyArchiveAPIURL = "archive-api-url"
	KeySettleDelay   = "settle-delay"
	KeyHTTPTimeout   = "http-timeout"
)

// Config holds everything needed to run one archiving job.
type Config struct {
	Username      string
	Headless      bool
	OutputDir     string
	Overwrite     bool
	DryRun        bool
	Debug         bool
	LogLevel      string
	ArchiveAPIURL string
	SettleDelay   time.Duration
	HTTPTimeout   time.Duration
}

// New returns a viper instance with defaults set and environment binding enabled.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyHeadless, false)
	v.SetDefault(KeyOutputDir, "./downloads")
	v.SetDefault(KeyOverwrite, false)
	v.SetDefault(KeyDryRun, false)
	v.SetDefault(KeyDebug, false)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyArchiveAPIURL, wayback.DefaultAPIURL)
	v.SetDefault(KeySettleDelay, time.Second)
	v.SetDefault(KeyHTTPTimeout, 30*time.Minute)
	return v
}

// LoadDotEnv loads environment variables from the given files, or .env when
// none is given. Missing files are ignored; variables already set win.
func LoadDotEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// Load reads the configuration from v and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Username:      strings.TrimSpace(v.GetString(KeyUsername)),
		Headless:      v.GetBool(KeyHeadless),
		OutputDir:     v.GetString(KeyOutputDir),
		Overwrite:     v.GetBool(KeyOverwrite),
		DryRun:        v.GetBool(KeyDryRun),
		Debug:         v.GetBool(KeyDebug),
		LogLevel:      v.GetString(KeyLogLevel),
		ArchiveAPIURL: v.GetString(KeyArchiveAPIURL),
		SettleDelay:   v.GetDuration(KeySettleDelay),
		HTTPTimeout:   v.GetDuration(KeyHTTPTimeout),
	}
	if cfg.Debug {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for missing or invalid values.
func (c *Config) Validate() error {
	if c.Username == "" {
		return errors.New("username is required")
	}
	if strings.ContainsAny(c.Username, "/?#") {
		return fmt.Errorf("invalid username %q", c.Username)
	}
	if c.OutputDir == "" {
		return errors.New("output directory is required")
	}
	if c.SettleDelay < 0 {
		return fmt.Errorf("settle delay must not be negative, got %s", c.SettleDelay)
	}
	return nil
}
