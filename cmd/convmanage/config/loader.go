// loader.go — Configuration loading with priority cascade.
// Priority: defaults < global config < project config < env vars < flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/dev-console/convmanage/internal/logging"
	"github.com/dev-console/convmanage/internal/page/rodpage"
	"github.com/dev-console/convmanage/internal/state"
)

// Config holds all resolved configuration values.
type Config struct {
	ControlURL string            `yaml:"control_url" json:"control_url"`
	Headless   bool              `yaml:"headless" json:"headless"`
	PageURL    string            `yaml:"page_url" json:"page_url"`
	StartURL   string            `yaml:"start_url" json:"start_url"`
	ProfileDir string            `yaml:"profile_dir" json:"profile_dir"`
	SettleMS   int               `yaml:"settle_ms" json:"settle_ms"`
	TimeoutMS  int               `yaml:"timeout_ms" json:"timeout_ms"`
	Format     string            `yaml:"format" json:"format"`
	LogLevel   string            `yaml:"log_level" json:"log_level"`
	LogFormat  string            `yaml:"log_format" json:"log_format"`
	Selectors  rodpage.Selectors `yaml:"selectors" json:"selectors"`
}

// FlagOverrides holds values explicitly set via command-line flags.
// Nil pointer means the flag was not set (so lower-priority values are kept).
type FlagOverrides struct {
	ControlURL *string
	Headless   *bool
	PageURL    *string
	StartURL   *string
	SettleMS   *int
	TimeoutMS  *int
	Format     *string
	LogLevel   *string
	LogFormat  *string
}

// Defaults returns the base configuration.
func Defaults() Config {
	return Config{
		Headless:  false,
		PageURL:   `bing\.com/(search|chat)`,
		StartURL:  "https://www.bing.com/chat",
		SettleMS:  500,
		TimeoutMS: 30000,
		Format:    "human",
		LogLevel:  "warn",
		LogFormat: logging.FormatText,
		Selectors: rodpage.DefaultSelectors(),
	}
}

// Load builds the final configuration by applying the priority cascade:
// defaults < global (state.GlobalConfigFile, normally ~/.convmanage/config.yaml) < project (.convmanage.yaml) < env vars < flags.
func Load(projectDir string, flags *FlagOverrides) (Config, error) {
	cfg := Defaults()

	if path, err := state.GlobalConfigFile(); err == nil {
		if err := loadGlobalConfig(&cfg, path); err != nil {
			return cfg, fmt.Errorf("global config: %w", err)
		}
	}

	if err := loadProjectConfig(&cfg, projectDir); err != nil {
		return cfg, fmt.Errorf("project config: %w", err)
	}

	if err := loadEnvVars(&cfg); err != nil {
		return cfg, fmt.Errorf("environment: %w", err)
	}

	if flags != nil {
		applyFlags(&cfg, flags)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// loadGlobalConfig reads the user-wide config file if it exists.
func loadGlobalConfig(cfg *Config, path string) error {
	return loadYAMLFile(cfg, path)
}

// loadProjectConfig reads .convmanage.yaml from dir if it exists.
func loadProjectConfig(cfg *Config, dir string) error {
	return loadYAMLFile(cfg, filepath.Join(dir, ".convmanage.yaml"))
}

// fileConfig uses pointers to distinguish "not set" from zero values.
type fileConfig struct {
	ControlURL *string            `yaml:"control_url"`
	Headless   *bool              `yaml:"headless"`
	PageURL    *string            `yaml:"page_url"`
	StartURL   *string            `yaml:"start_url"`
	ProfileDir *string            `yaml:"profile_dir"`
	SettleMS   *int               `yaml:"settle_ms"`
	TimeoutMS  *int               `yaml:"timeout_ms"`
	Format     *string            `yaml:"format"`
	LogLevel   *string            `yaml:"log_level"`
	LogFormat  *string            `yaml:"log_format"`
	Selectors  *rodpage.Selectors `yaml:"selectors"`
}

// loadYAMLFile reads a YAML config file and merges the keys it sets into cfg.
func loadYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	setString(&cfg.ControlURL, fc.ControlURL)
	setString(&cfg.PageURL, fc.PageURL)
	setString(&cfg.StartURL, fc.StartURL)
	setString(&cfg.ProfileDir, fc.ProfileDir)
	setString(&cfg.Format, fc.Format)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.LogFormat, fc.LogFormat)
	if fc.Headless != nil {
		cfg.Headless = *fc.Headless
	}
	if fc.SettleMS != nil {
		cfg.SettleMS = *fc.SettleMS
	}
	if fc.TimeoutMS != nil {
		cfg.TimeoutMS = *fc.TimeoutMS
	}
	if fc.Selectors != nil {
		cfg.Selectors = cfg.Selectors.Merge(*fc.Selectors)
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// loadEnvVars applies CONVMANAGE_* overrides. Malformed numbers and booleans
// are reported rather than ignored.
func loadEnvVars(cfg *Config) error {
	if v := os.Getenv("CONVMANAGE_CONTROL_URL"); v != "" {
		cfg.ControlURL = v
	}
	if v := os.Getenv("CONVMANAGE_PAGE_URL"); v != "" {
		cfg.PageURL = v
	}
	if v := os.Getenv("CONVMANAGE_START_URL"); v != "" {
		cfg.StartURL = v
	}
	if v := os.Getenv("CONVMANAGE_PROFILE_DIR"); v != "" {
		cfg.ProfileDir = v
	}
	if v := os.Getenv("CONVMANAGE_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("CONVMANAGE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("CONVMANAGE_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("CONVMANAGE_TIMEOUT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CONVMANAGE_TIMEOUT: %w", err)
		}
		cfg.TimeoutMS = n
	}
	if v := os.Getenv("CONVMANAGE_SETTLE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CONVMANAGE_SETTLE: %w", err)
		}
		cfg.SettleMS = n
	}
	if v := os.Getenv("CONVMANAGE_HEADLESS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CONVMANAGE_HEADLESS: %w", err)
		}
		cfg.Headless = b
	}
	return nil
}

// applyFlags applies command-line flag overrides (highest priority).
func applyFlags(cfg *Config, flags *FlagOverrides) {
	setString(&cfg.ControlURL, flags.ControlURL)
	setString(&cfg.PageURL, flags.PageURL)
	setString(&cfg.StartURL, flags.StartURL)
	setString(&cfg.Format, flags.Format)
	setString(&cfg.LogLevel, flags.LogLevel)
	setString(&cfg.LogFormat, flags.LogFormat)
	if flags.Headless != nil {
		cfg.Headless = *flags.Headless
	}
	if flags.SettleMS != nil {
		cfg.SettleMS = *flags.SettleMS
	}
	if flags.TimeoutMS != nil {
		cfg.TimeoutMS = *flags.TimeoutMS
	}
}

// Validate checks that configuration values are within acceptable ranges.
func (c Config) Validate() error {
	validFormats := map[string]bool{"human": true, "json": true, "csv": true}
	if !validFormats[c.Format] {
		return fmt.Errorf("format must be human, json, or csv, got %q", c.Format)
	}
	if c.TimeoutMS <= 0 {
		return fmt.Errorf("timeout_ms must be positive, got %d", c.TimeoutMS)
	}
	if c.SettleMS <= 0 {
		return fmt.Errorf("settle_ms must be positive, got %d", c.SettleMS)
	}
	if c.SettleMS >= c.TimeoutMS {
		return fmt.Errorf("settle_ms (%d) must be less than timeout_ms (%d)", c.SettleMS, c.TimeoutMS)
	}
	if !logging.ValidLevel(c.LogLevel) {
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}
	if c.LogFormat != logging.FormatText && c.LogFormat != logging.FormatJSON {
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	if c.PageURL != "" {
		if _, err := regexp.Compile(c.PageURL); err != nil {
			return fmt.Errorf("page_url is not a valid pattern: %w", err)
		}
	}
	if err := c.Selectors.Validate(); err != nil {
		return fmt.Errorf("selectors: %w", err)
	}
	return nil
}
