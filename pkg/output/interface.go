package output

import (
	"context"
	"fmt"
	"io"
)

// Formatter renders parsed transcripts in a specific format.
type Formatter interface {
	// Format renders the report to the given writer.
	Format(ctx context.Context, report *Report, w io.Writer) error

	// Name returns the format name (text, json, csv).
	Name() string
}

// FormatOptions controls formatter behavior.
type FormatOptions struct {
	// Verbose adds source locations and parse statistics.
	Verbose bool

	// Quiet enables minimal summary-only output.
	Quiet bool

	// Width truncates text lines to this many terminal cells. Zero disables truncation.
	Width int
}

// NewFormatter returns the formatter registered under name.
func NewFormatter(name string, opts FormatOptions) (Formatter, error) {
	switch name {
	case "", "text":
		return NewTextFormatter(opts), nil
	case "json":
		return NewJSONFormatter(opts), nil
	case "csv":
		return NewCSVFormatter(opts), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (must be text, json, or csv)", name)
	}
}
