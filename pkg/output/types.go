// Package output provides formatting and output generation for parsed transcripts.
package output

import (
	"time"

	"github.com/ccollicutt/chatlog/pkg/parser"
)

// Report is the complete parse output.
type Report struct {
	// Summary provides aggregate statistics.
	Summary Summary

	// Records are the resolved messages in output order.
	Records []parser.Record

	// Metadata provides context about the run.
	Metadata Metadata
}

// Summary provides aggregate statistics.
type Summary struct {
	// Transcripts is the number of transcript files parsed.
	Transcripts int

	// Lines is the number of non-empty lines read.
	Lines int

	// Headers is the number of lines that opened a message.
	Headers int

	// Continuations is the number of lines that extended a message.
	Continuations int

	// Records is the number of records emitted.
	Records int

	// Dropped is the number of lines discarded before the first header
	// or under an unauthored header.
	Dropped int
}

// Metadata provides context about the run.
type Metadata struct {
	// ConfigFile is the path to the configuration file used, if any.
	ConfigFile string

	// Sources lists the transcripts that were parsed.
	Sources []string

	// ParsedAt is when parsing finished.
	ParsedAt time.Time

	// Duration is how long parsing took.
	Duration time.Duration
}

// NewReport builds a Report from merged records and the per-transcript results
// that produced them.
func NewReport(records []parser.Record, results []*parser.Result, configFile string, start, end time.Time) *Report {
	report := &Report{
		Records: records,
		Metadata: Metadata{
			ConfigFile: configFile,
			Sources:    make([]string, 0, len(results)),
			ParsedAt:   end,
			Duration:   end.Sub(start),
		},
		Summary: Summary{
			Transcripts: len(results),
			Records:     len(records),
		},
	}
	if report.Records == nil {
		report.Records = []parser.Record{}
	}

	for _, r := range results {
		if r == nil {
			continue
		}
		report.Metadata.Sources = append(report.Metadata.Sources, r.Source)
		report.Summary.Lines += r.Stats.Lines
		report.Summary.Headers += r.Stats.Headers
		report.Summary.Continuations += r.Stats.Continuations
		report.Summary.Dropped += r.Stats.Dropped
	}

	return report
}

// HasRecords returns true if at least one record was produced.
func (r *Report) HasRecords() bool {
	return r.Summary.Records > 0
}
