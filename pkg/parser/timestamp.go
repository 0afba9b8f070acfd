package parser

import (
	"errors"
	"fmt"
	"time"
)

// ErrMalformedTimestamp is matched by errors.Is for every MalformedTimestampError.
var ErrMalformedTimestamp = errors.New("malformed timestamp")

// MalformedTimestampError reports a header whose timestamp does not fit the layout.
type MalformedTimestampError struct {
	LineNum int
	Text    string
	Layout  string
	Err     error
}

func (e *MalformedTimestampError) Error() string {
	return fmt.Sprintf("line %d: malformed timestamp %q (layout %q): %v", e.LineNum, e.Text, e.Layout, e.Err)
}

// Unwrap exposes both the sentinel and the underlying time.Parse error.
func (e *MalformedTimestampError) Unwrap() []error {
	return []error{ErrMalformedTimestamp, e.Err}
}

// TimestampParser parses header timestamps against a fixed layout.
type TimestampParser struct {
	layout   string
	location *time.Location
}

// NewTimestampParser creates a TimestampParser. A nil location means UTC.
func NewTimestampParser(layout string, loc *time.Location) *TimestampParser {
	if loc == nil {
		loc = time.UTC
	}
	return &TimestampParser{
		layout:   layout,
		location: loc,
	}
}

// Parse parses the timestamp text of the header on lineNum.
func (p *TimestampParser) Parse(text string, lineNum int) (time.Time, error) {
	ts, err := time.ParseInLocation(p.layout, text, p.location)
	if err != nil {
		return time.Time{}, &MalformedTimestampError{
			LineNum: lineNum,
			Text:    text,
			Layout:  p.layout,
			Err:     err,
		}
	}
	return ts, nil
}
