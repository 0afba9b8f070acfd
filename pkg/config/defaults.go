package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"

	"github.com/ccollicutt/chatlog/pkg/parser"
)

// Default values for configuration.
const (
	DefaultOutputFormat   = OutputText
	DefaultWebhookTimeout = 10 * time.Second
)

// DefaultConfig returns a configuration for the default exporter locale.
func DefaultConfig() *Config {
	opts := parser.DefaultOptions()

	meridiem := make([]MeridiemConfig, len(opts.Meridiem))
	for i, m := range opts.Meridiem {
		meridiem[i] = MeridiemConfig{From: m.From, To: m.To}
	}

	return &Config{
		Transcripts: []string{},
		Locale: LocaleConfig{
			HeaderPattern:     opts.HeaderPattern,
			Layout:            opts.Layout,
			Meridiem:          meridiem,
			AttachmentMarkers: append([]string(nil), opts.AttachmentMarkers...),
		},
		Cleaning: CleaningConfig{
			MediaExtensions: append([]string(nil), opts.MediaExtensions...),
		},
		Output: OutputConfig{Format: DefaultOutputFormat},
	}
}

// envOverrides lists the environment variables that override file settings.
type envOverrides struct {
	Transcripts     []string `env:"CHATLOG_TRANSCRIPTS" envSeparator:","`
	Layout          string   `env:"CHATLOG_TIMESTAMP_LAYOUT"`
	Timezone        string   `env:"CHATLOG_TIMEZONE"`
	MediaExtensions []string `env:"CHATLOG_MEDIA_EXTENSIONS" envSeparator:","`
	Output          string   `env:"CHATLOG_OUTPUT"`
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvironmentOverrides() error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}

	if len(o.Transcripts) > 0 {
		c.Transcripts = o.Transcripts
	}
	if o.Layout != "" {
		c.Locale.Layout = o.Layout
	}
	if o.Timezone != "" {
		c.Locale.Timezone = o.Timezone
	}
	if len(o.MediaExtensions) > 0 {
		c.Cleaning.MediaExtensions = o.MediaExtensions
	}
	if o.Output != "" {
		c.Output.Format = OutputFormat(o.Output)
	}
	return nil
}

// ParserOptions converts the configuration into parser options.
// Call Validate first so the timezone is resolved.
func (c *Config) ParserOptions() parser.Options {
	meridiem := make([]parser.MeridiemRule, len(c.Locale.Meridiem))
	for i, m := range c.Locale.Meridiem {
		meridiem[i] = parser.MeridiemRule{From: m.From, To: m.To}
	}

	return parser.Options{
		HeaderPattern:     c.Locale.HeaderPattern,
		HeaderRegexp:      c.Locale.CompiledPattern(),
		Layout:            c.Locale.Layout,
		Location:          c.Locale.Location(),
		Meridiem:          meridiem,
		AttachmentMarkers: c.Locale.AttachmentMarkers,
		MediaExtensions:   c.Cleaning.MediaExtensions,
		StripAuthorSuffix: c.Cleaning.StripAuthorSuffixEnabled(),
	}
}
