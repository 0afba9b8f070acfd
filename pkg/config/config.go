package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Load reads and validates a configuration file. Files ending in .toml are
// decoded as TOML, everything else as YAML.
func Load(_ context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := decode(path, data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.applyEnvironmentOverrides(); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads path, or validates the default configuration with
// environment overrides when path is empty.
func LoadOrDefault(ctx context.Context, path string) (*Config, error) {
	if path != "" {
		return Load(ctx, path)
	}

	cfg := DefaultConfig()
	if err := cfg.applyEnvironmentOverrides(); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return toml.Unmarshal(data, cfg)
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks a configuration for errors, compiles the header pattern
// and resolves the timezone.
func Validate(cfg *Config) error {
	if err := validateLocale(&cfg.Locale); err != nil {
		return fmt.Errorf("locale: %w", err)
	}

	if err := validateCleaning(&cfg.Cleaning); err != nil {
		return fmt.Errorf("cleaning: %w", err)
	}

	if cfg.Output.Format == "" {
		cfg.Output.Format = DefaultOutputFormat
	}
	switch cfg.Output.Format {
	case OutputText, OutputJSON, OutputCSV:
	default:
		return fmt.Errorf("output.format: invalid format %q (must be text, json, or csv)", cfg.Output.Format)
	}

	for i := range cfg.Webhooks {
		if err := validateWebhook(&cfg.Webhooks[i]); err != nil {
			name := cfg.Webhooks[i].Name
			if name == "" {
				name = cfg.Webhooks[i].URL
			}
			return fmt.Errorf("webhooks[%d] (%s): %w", i, name, err)
		}
	}

	return nil
}

// layoutProbe is rendered with the configured layout and parsed back to
// catch layouts that cannot describe a header timestamp.
var layoutProbe = time.Date(2023, time.November, 25, 22, 5, 0, 0, time.UTC)

func validateLocale(l *LocaleConfig) error {
	if l.HeaderPattern == "" {
		return errors.New("header_pattern is required")
	}
	if !strings.HasPrefix(l.HeaderPattern, "^") {
		return errors.New("header_pattern must be anchored with ^")
	}
	re, err := regexp.Compile(l.HeaderPattern)
	if err != nil {
		return fmt.Errorf("invalid header_pattern: %w", err)
	}
	l.compiledPattern = re

	if l.Layout == "" {
		return errors.New("layout is required")
	}
	parsed, err := time.Parse(l.Layout, layoutProbe.Format(l.Layout))
	if err != nil {
		return fmt.Errorf("invalid layout %q: %w", l.Layout, err)
	}
	if parsed.Day() != layoutProbe.Day() || parsed.Hour() != layoutProbe.Hour() {
		return fmt.Errorf("layout %q must include day and hour", l.Layout)
	}

	l.location = time.UTC
	if l.Timezone != "" {
		loc, err := time.LoadLocation(l.Timezone)
		if err != nil {
			return fmt.Errorf("invalid timezone: %w", err)
		}
		l.location = loc
	}

	for i, m := range l.Meridiem {
		if m.From == "" {
			return fmt.Errorf("meridiem[%d]: from is required", i)
		}
	}

	return nil
}

func validateCleaning(c *CleaningConfig) error {
	for i, ext := range c.MediaExtensions {
		ext = strings.TrimPrefix(ext, ".")
		if ext == "" {
			return fmt.Errorf("media_extensions[%d]: empty extension", i)
		}
		if strings.ContainsAny(ext, " \t") {
			return fmt.Errorf("media_extensions[%d]: %q contains whitespace", i, ext)
		}
	}
	return nil
}

func validateWebhook(wh *WebhookConfig) error {
	if wh.URL == "" {
		return errors.New("url is required")
	}

	u, err := url.Parse(wh.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("url must have a host")
	}

	wh.Token = expandEnvVar(wh.Token)

	switch wh.Trigger {
	case "":
		wh.Trigger = WebhookTriggerOnRecords
	case WebhookTriggerOnRecords, WebhookTriggerAlways, WebhookTriggerNever:
	default:
		return fmt.Errorf("invalid trigger %q (must be on_records, always, or never)", wh.Trigger)
	}

	if wh.Timeout <= 0 {
		wh.Timeout = DefaultWebhookTimeout
	}

	return nil
}

// expandEnvVar expands a token written as ${VAR} or $VAR.
func expandEnvVar(s string) string {
	switch {
	case strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}"):
		return os.Getenv(s[2 : len(s)-1])
	case strings.HasPrefix(s, "$") && len(s) > 1:
		return os.Getenv(s[1:])
	default:
		return s
	}
}
