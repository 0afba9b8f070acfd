package output

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/ccollicutt/chatlog/pkg/parser"
)

const (
	textTimeLayout = "2006-01-02 15:04"
	maxAuthorWidth = 24
	ellipsis       = "…"
)

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet {
		return f.formatQuiet(report, w)
	}
	return f.formatFull(ctx, report, w)
}

func (f *TextFormatter) formatQuiet(report *Report, w io.Writer) error {
	_, err := fmt.Fprintf(w, "chatlog: %d records from %d transcript(s), %d lines dropped\n",
		report.Summary.Records,
		report.Summary.Transcripts,
		report.Summary.Dropped)
	return err
}

func (f *TextFormatter) formatFull(ctx context.Context, report *Report, w io.Writer) error {
	fmt.Fprintln(w, "=== Chat Transcript ===")
	fmt.Fprintln(w)

	if len(report.Records) == 0 {
		fmt.Fprintln(w, "No records found")
		fmt.Fprintln(w)
	}

	authorWidth := authorColumnWidth(report.Records)
	for i := range report.Records {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		line := f.formatRecord(&report.Records[i], authorWidth)
		if f.opts.Width > 0 {
			line = runewidth.Truncate(line, f.opts.Width, ellipsis)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d records from %d transcript(s), %d lines read, %d dropped\n",
		report.Summary.Records,
		report.Summary.Transcripts,
		report.Summary.Lines,
		report.Summary.Dropped)

	if f.opts.Verbose {
		fmt.Fprintf(w, "Headers: %d, continuations: %d\n", report.Summary.Headers, report.Summary.Continuations)
		fmt.Fprintf(w, "Duration: %s\n", report.Metadata.Duration.Round(1e6))
	}

	return nil
}

func (f *TextFormatter) formatRecord(rec *parser.Record, authorWidth int) string {
	var b strings.Builder
	if f.opts.Verbose && rec.Source != "" {
		fmt.Fprintf(&b, "%s:%d ", rec.Source, rec.LineNum)
	}
	b.WriteString("[")
	b.WriteString(rec.Timestamp.Format(textTimeLayout))
	b.WriteString("] ")
	b.WriteString(runewidth.FillRight(runewidth.Truncate(rec.Author, authorWidth, ellipsis), authorWidth))
	b.WriteString(" | ")
	b.WriteString(rec.Message)
	return b.String()
}

// authorColumnWidth is the display width of the widest author, capped at maxAuthorWidth.
func authorColumnWidth(records []parser.Record) int {
	width := 0
	for i := range records {
		if w := runewidth.StringWidth(records[i].Author); w > width {
			width = w
		}
	}
	return min(width, maxAuthorWidth)
}
