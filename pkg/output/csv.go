package output

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
)

// CSVTimeLayout is the timestamp layout of the Datetime column.
const CSVTimeLayout = "2006-01-02 15:04:05"

// CSVFormatter writes one row per record with a Datetime,Author,Message header.
type CSVFormatter struct {
	opts FormatOptions
}

// NewCSVFormatter creates a new CSV formatter with the given options.
func NewCSVFormatter(opts FormatOptions) *CSVFormatter {
	return &CSVFormatter{opts: opts}
}

// Name returns the format name.
func (f *CSVFormatter) Name() string {
	return "csv"
}

// Format renders the records as CSV. Quiet mode writes only the header.
func (f *CSVFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	cw := csv.NewWriter(w)

	header := []string{"Datetime", "Author", "Message"}
	if f.opts.Verbose {
		header = append(header, "Source", "Line")
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	if !f.opts.Quiet {
		for i, rec := range report.Records {
			if i%1024 == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			row := []string{rec.Timestamp.Format(CSVTimeLayout), rec.Author, rec.Message}
			if f.opts.Verbose {
				row = append(row, rec.Source, strconv.Itoa(rec.LineNum))
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
