package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ccollicutt/chatlog/pkg/parser"
)

func TestLoad_ValidYAML(t *testing.T) {
	content := `
transcripts:
  - /exports/*.txt
locale:
  layout: "2/1/2006 3:04 PM"
  timezone: "America/Bogota"
  attachment_markers:
    - " (archivo adjunto)"
cleaning:
  media_extensions: [jpg, opus]
  strip_author_suffix: false
output:
  format: json
`
	path := writeTempFile(t, "chatlog.yaml", content)
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.Transcripts) != 1 || cfg.Transcripts[0] != "/exports/*.txt" {
		t.Errorf("Transcripts = %v, want [/exports/*.txt]", cfg.Transcripts)
	}
	if cfg.Locale.HeaderPattern != parser.DefaultHeaderPattern {
		t.Errorf("HeaderPattern = %q, want default", cfg.Locale.HeaderPattern)
	}
	if cfg.Locale.CompiledPattern() == nil {
		t.Error("CompiledPattern() is nil after Load")
	}
	if cfg.Locale.Location().String() != "America/Bogota" {
		t.Errorf("Location() = %v, want America/Bogota", cfg.Locale.Location())
	}
	if len(cfg.Locale.Meridiem) != 2 {
		t.Errorf("Meridiem = %d rules, want default 2", len(cfg.Locale.Meridiem))
	}
	if len(cfg.Locale.AttachmentMarkers) != 1 {
		t.Errorf("AttachmentMarkers = %v, want 1 entry", cfg.Locale.AttachmentMarkers)
	}
	if len(cfg.Cleaning.MediaExtensions) != 2 {
		t.Errorf("MediaExtensions = %v, want [jpg opus]", cfg.Cleaning.MediaExtensions)
	}
	if cfg.Cleaning.StripAuthorSuffixEnabled() {
		t.Error("StripAuthorSuffixEnabled() = true, want false")
	}
	if cfg.Output.Format != OutputJSON {
		t.Errorf("Output.Format = %q, want json", cfg.Output.Format)
	}
}

func TestLoad_ValidTOML(t *testing.T) {
	content := `
transcripts = ["chat.txt"]

[locale]
layout = "2/1/06, 15:04"
header_pattern = '^\d+/\d+/\d+, \d+:\d+\s* -'
meridiem = []

[cleaning]
media_extensions = ["pdf"]

[[webhooks]]
name = "archive"
url = "https://example.com/hook"
trigger = "always"
`
	path := writeTempFile(t, "chatlog.toml", content)
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Locale.Layout != "2/1/06, 15:04" {
		t.Errorf("Layout = %q", cfg.Locale.Layout)
	}
	if len(cfg.Locale.Meridiem) != 0 {
		t.Errorf("Meridiem = %v, want empty", cfg.Locale.Meridiem)
	}
	if len(cfg.Webhooks) != 1 || cfg.Webhooks[0].Trigger != WebhookTriggerAlways {
		t.Fatalf("Webhooks = %+v, want one always webhook", cfg.Webhooks)
	}
	if cfg.Webhooks[0].Timeout != DefaultWebhookTimeout {
		t.Errorf("Timeout = %v, want default", cfg.Webhooks[0].Timeout)
	}
	if !cfg.Cleaning.StripAuthorSuffixEnabled() {
		t.Error("StripAuthorSuffixEnabled() should default to true")
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(context.Background(), "/nonexistent/chatlog.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeTempFile(t, "bad.yaml", "locale: [unclosed")
	_, err := Load(context.Background(), path)
	if err == nil {
		t.Error("Load() expected error for invalid YAML")
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := writeTempFile(t, "bad.toml", "[locale\nlayout = ")
	_, err := Load(context.Background(), path)
	if err == nil {
		t.Error("Load() expected error for invalid TOML")
	}
}

func TestLoad_EmptyFileUsesDefaults(t *testing.T) {
	path := writeTempFile(t, "empty.yaml", "")
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Locale.Layout != parser.DefaultTimestampLayout {
		t.Errorf("Layout = %q, want default", cfg.Locale.Layout)
	}
	if cfg.Output.Format != DefaultOutputFormat {
		t.Errorf("Output.Format = %q, want default", cfg.Output.Format)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("CHATLOG_TRANSCRIPTS", "a.txt,b.txt")
	t.Setenv("CHATLOG_TIMEZONE", "Europe/Madrid")
	t.Setenv("CHATLOG_MEDIA_EXTENSIONS", "webp,mp4")
	t.Setenv("CHATLOG_OUTPUT", "csv")

	path := writeTempFile(t, "chatlog.yaml", "output:\n  format: json\n")
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if strings.Join(cfg.Transcripts, ",") != "a.txt,b.txt" {
		t.Errorf("Transcripts = %v", cfg.Transcripts)
	}
	if cfg.Locale.Location().String() != "Europe/Madrid" {
		t.Errorf("Location() = %v", cfg.Locale.Location())
	}
	if strings.Join(cfg.Cleaning.MediaExtensions, ",") != "webp,mp4" {
		t.Errorf("MediaExtensions = %v", cfg.Cleaning.MediaExtensions)
	}
	if cfg.Output.Format != OutputCSV {
		t.Errorf("Output.Format = %q, want csv", cfg.Output.Format)
	}
}

func TestLoad_EnvironmentInvalidLayout(t *testing.T) {
	t.Setenv("CHATLOG_TIMESTAMP_LAYOUT", "2006")
	path := writeTempFile(t, "chatlog.yaml", "")
	if _, err := Load(context.Background(), path); err == nil {
		t.Error("Load() expected error for layout without day and hour")
	}
}

func TestLoadOrDefault_EmptyPath(t *testing.T) {
	cfg, err := LoadOrDefault(context.Background(), "")
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.Locale.CompiledPattern() == nil {
		t.Error("default config was not validated")
	}
	if cfg.Locale.Location() != time.UTC {
		t.Errorf("Location() = %v, want UTC", cfg.Locale.Location())
	}
}

func TestLoadOrDefault_WithPath(t *testing.T) {
	path := writeTempFile(t, "chatlog.yaml", "output:\n  format: csv\n")
	cfg, err := LoadOrDefault(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.Output.Format != OutputCSV {
		t.Errorf("Output.Format = %q, want csv", cfg.Output.Format)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "default config",
			modify: func(*Config) {},
		},
		{
			name:    "missing header pattern",
			modify:  func(c *Config) { c.Locale.HeaderPattern = "" },
			wantErr: "header_pattern is required",
		},
		{
			name:    "unanchored header pattern",
			modify:  func(c *Config) { c.Locale.HeaderPattern = `\d+/\d+` },
			wantErr: "anchored",
		},
		{
			name:    "invalid header pattern",
			modify:  func(c *Config) { c.Locale.HeaderPattern = `^[invalid` },
			wantErr: "invalid header_pattern",
		},
		{
			name:    "missing layout",
			modify:  func(c *Config) { c.Locale.Layout = "" },
			wantErr: "layout is required",
		},
		{
			name:    "layout without hour",
			modify:  func(c *Config) { c.Locale.Layout = "2/1/2006" },
			wantErr: "must include day and hour",
		},
		{
			name:    "twelve hour layout without meridiem",
			modify:  func(c *Config) { c.Locale.Layout = "2/1/2006 3:04" },
			wantErr: "must include day and hour",
		},
		{
			name:   "twenty four hour layout",
			modify: func(c *Config) { c.Locale.Layout = "02.01.2006 15:04" },
		},
		{
			name:    "invalid timezone",
			modify:  func(c *Config) { c.Locale.Timezone = "Mars/Olympus" },
			wantErr: "invalid timezone",
		},
		{
			name:    "meridiem without from",
			modify:  func(c *Config) { c.Locale.Meridiem = []MeridiemConfig{{To: "AM"}} },
			wantErr: "from is required",
		},
		{
			name:    "empty media extension",
			modify:  func(c *Config) { c.Cleaning.MediaExtensions = []string{"jpg", "."} },
			wantErr: "empty extension",
		},
		{
			name:    "media extension with space",
			modify:  func(c *Config) { c.Cleaning.MediaExtensions = []string{"tar gz"} },
			wantErr: "whitespace",
		},
		{
			name:   "media extension with dot",
			modify: func(c *Config) { c.Cleaning.MediaExtensions = []string{".jpg"} },
		},
		{
			name:    "invalid output format",
			modify:  func(c *Config) { c.Output.Format = "xml" },
			wantErr: "invalid format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_EmptyOutputFormatDefaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output.Format = ""
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.Output.Format != DefaultOutputFormat {
		t.Errorf("Output.Format = %q, want %q", cfg.Output.Format, DefaultOutputFormat)
	}
}

func TestValidate_Webhooks(t *testing.T) {
	tests := []struct {
		name    string
		webhook WebhookConfig
		wantErr bool
	}{
		{"https", WebhookConfig{Name: "archive", URL: "https://example.com/webhook", Trigger: WebhookTriggerOnRecords}, false},
		{"http", WebhookConfig{URL: "http://localhost:8080/webhook"}, false},
		{"missing url", WebhookConfig{Name: "no-url"}, true},
		{"invalid scheme", WebhookConfig{URL: "ftp://example.com/webhook"}, true},
		{"missing host", WebhookConfig{URL: "https:///webhook"}, true},
		{"invalid trigger", WebhookConfig{URL: "https://example.com/webhook", Trigger: "on_issues"}, true},
		{"always", WebhookConfig{URL: "https://example.com/webhook", Trigger: WebhookTriggerAlways}, false},
		{"never", WebhookConfig{URL: "https://example.com/webhook", Trigger: WebhookTriggerNever}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Webhooks = []WebhookConfig{tt.webhook}
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_WebhookDefaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Webhooks = []WebhookConfig{{URL: "https://example.com/webhook"}}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.Webhooks[0].Trigger != WebhookTriggerOnRecords {
		t.Errorf("Default trigger = %v, want %v", cfg.Webhooks[0].Trigger, WebhookTriggerOnRecords)
	}
	if cfg.Webhooks[0].Timeout != DefaultWebhookTimeout {
		t.Errorf("Default timeout = %v, want %v", cfg.Webhooks[0].Timeout, DefaultWebhookTimeout)
	}
}

func TestLoad_WithWebhooks(t *testing.T) {
	t.Setenv("TEST_WEBHOOK_TOKEN", "secret-value")
	content := `
webhooks:
  - name: archive
    url: "https://example.com/webhook"
    token: "${TEST_WEBHOOK_TOKEN}"
    timeout: 30s
  - url: "https://backup.example.com/webhook"
    trigger: always
`
	path := writeTempFile(t, "chatlog.yaml", content)
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.Webhooks) != 2 {
		t.Fatalf("Webhooks = %d, want 2", len(cfg.Webhooks))
	}
	if cfg.Webhooks[0].Token != "secret-value" {
		t.Errorf("Webhook[0].Token = %q, want expanded value", cfg.Webhooks[0].Token)
	}
	if cfg.Webhooks[0].Timeout != 30*time.Second {
		t.Errorf("Webhook[0].Timeout = %v, want 30s", cfg.Webhooks[0].Timeout)
	}
	if cfg.Webhooks[1].Trigger != WebhookTriggerAlways {
		t.Errorf("Webhook[1].Trigger = %v, want %v", cfg.Webhooks[1].Trigger, WebhookTriggerAlways)
	}
}

func TestExpandEnvVar(t *testing.T) {
	t.Setenv("TEST_WEBHOOK_TOKEN", "secret-value")

	tests := []struct {
		input string
		want  string
	}{
		{"${TEST_WEBHOOK_TOKEN}", "secret-value"},
		{"$TEST_WEBHOOK_TOKEN", "secret-value"},
		{"plain-value", "plain-value"},
		{"", ""},
		{"$", "$"},
		{"${NONEXISTENT_VAR}", ""},
	}

	for _, tt := range tests {
		got := expandEnvVar(tt.input)
		if got != tt.want {
			t.Errorf("expandEnvVar(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestParserOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Locale.Timezone = "America/Bogota"
	cfg.Cleaning.MediaExtensions = []string{"jpg"}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	opts := cfg.ParserOptions()
	if opts.Location.String() != "America/Bogota" {
		t.Errorf("Location = %v", opts.Location)
	}
	if !opts.StripAuthorSuffix {
		t.Error("StripAuthorSuffix = false, want true")
	}
	if opts.HeaderRegexp == nil || opts.HeaderRegexp != cfg.Locale.CompiledPattern() {
		t.Errorf("HeaderRegexp = %v, want the pattern compiled by Validate", opts.HeaderRegexp)
	}

	p, err := parser.NewWithOptions(opts)
	if err != nil {
		t.Fatalf("NewWithOptions() error = %v", err)
	}
	result, err := p.Parse("1/2/2023 10:05 a.m. - Ana, Bogotá: foto IMG 01 jpg\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(result.Records) != 1 {
		t.Fatalf("Records = %d, want 1", len(result.Records))
	}
	rec := result.Records[0]
	if rec.Author != "Ana" {
		t.Errorf("Author = %q, want Ana", rec.Author)
	}
	if rec.Message != "foto IMG 01.jpg" {
		t.Errorf("Message = %q, want %q", rec.Message, "foto IMG 01.jpg")
	}
	if rec.Timestamp.Location().String() != "America/Bogota" {
		t.Errorf("Timestamp location = %v", rec.Timestamp.Location())
	}
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}
	return path
}
