// Package config provides configuration loading and validation for chatlog.
package config

import (
	"regexp"
	"time"
)

// Config is the root configuration structure loaded from YAML or TOML.
type Config struct {
	// Transcripts lists transcript files or glob patterns. CLI arguments are added to these.
	Transcripts []string        `yaml:"transcripts,omitempty" toml:"transcripts"`
	Locale      LocaleConfig    `yaml:"locale" toml:"locale"`
	Cleaning    CleaningConfig  `yaml:"cleaning" toml:"cleaning"`
	Output      OutputConfig    `yaml:"output" toml:"output"`
	Webhooks    []WebhookConfig `yaml:"webhooks,omitempty" toml:"webhooks"`
}

// LocaleConfig describes how a particular exporter locale writes header lines.
type LocaleConfig struct {
	// HeaderPattern is a regex recognizing header lines. Must start with ^.
	HeaderPattern string `yaml:"header_pattern" toml:"header_pattern"`

	// Layout is the Go time layout of the header timestamp after meridiem
	// substitution. See https://pkg.go.dev/time#pkg-constants for format.
	Layout string `yaml:"layout" toml:"layout"`

	// Timezone is an IANA zone name used to interpret timestamps. Empty means UTC.
	Timezone string `yaml:"timezone,omitempty" toml:"timezone"`

	// Meridiem maps locale AM/PM abbreviations to the tokens the layout expects.
	Meridiem []MeridiemConfig `yaml:"meridiem" toml:"meridiem"`

	// AttachmentMarkers are phrases the exporter appends after attached file names.
	AttachmentMarkers []string `yaml:"attachment_markers" toml:"attachment_markers"`

	compiledPattern *regexp.Regexp
	location        *time.Location
}

// CompiledPattern returns the pre-compiled header pattern.
func (l *LocaleConfig) CompiledPattern() *regexp.Regexp {
	return l.compiledPattern
}

// Location returns the resolved timezone (populated during validation).
func (l *LocaleConfig) Location() *time.Location {
	if l.location == nil {
		return time.UTC
	}
	return l.location
}

// MeridiemConfig is one meridiem substitution.
type MeridiemConfig struct {
	From string `yaml:"from" toml:"from"`
	To   string `yaml:"to" toml:"to"`
}

// CleaningConfig controls message and author cleanup.
type CleaningConfig struct {
	// MediaExtensions are restored from "name ext" to "name.ext".
	MediaExtensions []string `yaml:"media_extensions" toml:"media_extensions"`

	// StripAuthorSuffix truncates author names at the first comma.
	// Defaults to true when omitted.
	StripAuthorSuffix *bool `yaml:"strip_author_suffix,omitempty" toml:"strip_author_suffix"`
}

// StripAuthorSuffixEnabled reports the effective StripAuthorSuffix value.
func (c *CleaningConfig) StripAuthorSuffixEnabled() bool {
	return c.StripAuthorSuffix == nil || *c.StripAuthorSuffix
}

// OutputFormat names a record output format.
type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
	OutputCSV  OutputFormat = "csv"
)

// OutputConfig sets output defaults for the CLI.
type OutputConfig struct {
	Format OutputFormat `yaml:"format,omitempty" toml:"format"`
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerOnRecords fires only when at least one record was parsed (default).
	WebhookTriggerOnRecords WebhookTrigger = "on_records"
	// WebhookTriggerAlways fires after every parse.
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines a webhook endpoint that receives the parsed report.
type WebhookConfig struct {
	Name    string         `yaml:"name,omitempty" toml:"name"`
	URL     string         `yaml:"url" toml:"url"`
	Token   string         `yaml:"token,omitempty" toml:"token"`
	Trigger WebhookTrigger `yaml:"trigger,omitempty" toml:"trigger"`

	// Timeout is the HTTP request timeout. Defaults to 10s.
	Timeout time.Duration `yaml:"timeout,omitempty" toml:"timeout"`
}
