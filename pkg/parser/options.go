package parser

import (
	"log/slog"
	"regexp"
	"time"
)

// Defaults for the Spanish-locale exporter this package was first written against.
const (
	DefaultHeaderPattern   = `^\d+/\d+/\d+ \d+:\d+\s[a-zA-Z]\.[a-zA-Z]\.\s* -`
	DefaultTimestampLayout = "2/1/2006 3:04 PM"
	HeaderSeparator        = " - "
	AuthorSeparator        = ": "
)

// MeridiemRule replaces a locale meridiem abbreviation with a canonical token.
type MeridiemRule struct {
	From string
	To   string
}

// Options controls the locale-specific parts of parsing.
type Options struct {
	// HeaderPattern recognizes header lines. Must be anchored with ^.
	HeaderPattern string

	// HeaderRegexp is an already compiled HeaderPattern. When set it is used
	// instead of compiling HeaderPattern again.
	HeaderRegexp *regexp.Regexp

	// Layout is the Go time layout for the header timestamp after meridiem substitution.
	Layout string

	// Location is used to interpret timestamps. Nil means UTC.
	Location *time.Location

	// Meridiem is applied in order to the timestamp region of header lines.
	Meridiem []MeridiemRule

	// AttachmentMarkers are removed from the whole text before splitting lines.
	AttachmentMarkers []string

	// MediaExtensions are the file suffixes whose dot the exporter replaces with a space.
	MediaExtensions []string

	// StripAuthorSuffix truncates authors at the first comma.
	StripAuthorSuffix bool

	// Logger receives debug counters. Nil uses slog.Default().
	Logger *slog.Logger
}

// DefaultOptions returns options for the default exporter locale.
func DefaultOptions() Options {
	return Options{
		HeaderPattern: DefaultHeaderPattern,
		Layout:        DefaultTimestampLayout,
		Location:      time.UTC,
		Meridiem: []MeridiemRule{
			{From: "p.m.", To: "PM"},
			{From: "a.m.", To: "AM"},
		},
		AttachmentMarkers: []string{" (archivo adjunto)", " (attached file)"},
		MediaExtensions:   []string{"webp", "jpg", "mp3"},
		StripAuthorSuffix: true,
	}
}

// Option mutates Options.
type Option func(*Options)

// WithLayout sets the timestamp layout.
func WithLayout(layout string) Option {
	return func(o *Options) {
		if layout != "" {
			o.Layout = layout
		}
	}
}

// WithLocation sets the timezone used to interpret timestamps.
func WithLocation(loc *time.Location) Option {
	return func(o *Options) {
		if loc != nil {
			o.Location = loc
		}
	}
}

// WithMediaExtensions replaces the restored media extensions.
func WithMediaExtensions(exts ...string) Option {
	return func(o *Options) {
		o.MediaExtensions = exts
	}
}

// WithStripAuthorSuffix toggles comma truncation of authors.
func WithStripAuthorSuffix(strip bool) Option {
	return func(o *Options) {
		o.StripAuthorSuffix = strip
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}
