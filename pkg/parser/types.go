// Package parser turns exported chat transcripts into ordered message records.
package parser

import "time"

// PartialRecord is the per-line parsing result before carry-forward.
type PartialRecord struct {
	// TimestampText is the literal date/time prefix of a header line,
	// with meridiem markers already canonicalized. Only set when HasTimestamp.
	TimestampText string
	HasTimestamp  bool

	// Author is the sender of a header line. Only set when HasAuthor.
	Author    string
	HasAuthor bool

	// Message is the cleaned message fragment of this line.
	Message string

	// LineNum is the 1-based physical line number in the normalized text.
	LineNum int
}

// IsHeader reports whether the line opened a new logical message.
func (p PartialRecord) IsHeader() bool {
	return p.HasTimestamp
}

// Record is a fully resolved chat message line.
type Record struct {
	Timestamp time.Time `json:"Datetime"`
	Author    string    `json:"Author"`
	Message   string    `json:"Message"`

	// Source is the transcript path this record came from, if known.
	Source string `json:"Source,omitempty"`

	// LineNum is the 1-based line number in the source transcript.
	LineNum int `json:"LineNum,omitempty"`
}

// Stats counts what happened during one parse.
type Stats struct {
	Lines         int `json:"lines"`
	Headers       int `json:"headers"`
	Continuations int `json:"continuations"`
	Records       int `json:"records"`
	Dropped       int `json:"dropped"`
}

// Result is the outcome of parsing one transcript.
type Result struct {
	Source  string
	Records []Record
	Stats   Stats
}
