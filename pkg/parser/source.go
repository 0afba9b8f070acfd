package parser

import (
	"context"
	"io"
)

// SliceSource iterates over records already in memory.
type SliceSource struct {
	records []Record
	pos     int
}

// NewSliceSource creates a RecordSource over records.
func NewSliceSource(records []Record) *SliceSource {
	return &SliceSource{records: records}
}

// Next returns the next record or io.EOF.
func (s *SliceSource) Next(ctx context.Context) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.records) {
		return nil, io.EOF
	}
	rec := &s.records[s.pos]
	s.pos++
	return rec, nil
}

// Close is a no-op.
func (s *SliceSource) Close() error {
	return nil
}

// FileSource parses one transcript file on first use and then iterates
// over its records.
type FileSource struct {
	parser *Parser
	path   string

	result *Result
	inner  *SliceSource
}

// NewFileSource creates a RecordSource for the transcript at path.
func NewFileSource(p *Parser, path string) *FileSource {
	return &FileSource{parser: p, path: path}
}

// Next returns the next record of the transcript.
// Returns io.EOF once all records have been returned.
func (s *FileSource) Next(ctx context.Context) (*Record, error) {
	if s.inner == nil {
		result, err := s.parser.ParseFile(ctx, s.path)
		if err != nil {
			return nil, err
		}
		s.result = result
		s.inner = NewSliceSource(result.Records)
	}
	return s.inner.Next(ctx)
}

// Result returns the parse result, or nil before the first call to Next.
func (s *FileSource) Result() *Result {
	return s.result
}

// Close releases the parsed records.
func (s *FileSource) Close() error {
	s.inner = NewSliceSource(nil)
	return nil
}
