package parser

import (
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// maxTranscriptSize bounds how much of a single transcript is read into memory.
const maxTranscriptSize = 512 * 1024 * 1024

// ErrTranscriptTooLarge is returned when a transcript exceeds the in-memory limit.
var ErrTranscriptTooLarge = errors.New("transcript too large")

// ReadTranscript reads a whole transcript into memory.
//
// Exports are UTF-8, but some platforms prepend a byte order mark or save
// as UTF-16; both are detected from the BOM and decoded to plain UTF-8.
func ReadTranscript(r io.Reader) (string, error) {
	return readTranscript(r, maxTranscriptSize)
}

func readTranscript(r io.Reader, limit int64) (string, error) {
	// Read one byte past the limit so oversize input is reported, not cut.
	data, err := io.ReadAll(io.LimitReader(NewTranscriptReader(r), limit+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > limit {
		return "", fmt.Errorf("%w: more than %d bytes", ErrTranscriptTooLarge, limit)
	}
	return string(data), nil
}

// NewTranscriptReader wraps r so that it yields UTF-8 regardless of the
// export's byte order mark.
func NewTranscriptReader(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}
