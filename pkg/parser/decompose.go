package parser

import "strings"

// Decomposer splits header lines into timestamp, author and message.
type Decomposer struct {
	meridiem          []MeridiemRule
	stripAuthorSuffix bool
}

// NewDecomposer creates a Decomposer.
func NewDecomposer(meridiem []MeridiemRule, stripAuthorSuffix bool) *Decomposer {
	return &Decomposer{
		meridiem:          meridiem,
		stripAuthorSuffix: stripAuthorSuffix,
	}
}

// Decompose splits a header line. It never fails: a header without an
// author separator is a system notice and yields no author.
func (d *Decomposer) Decompose(line string, lineNum int) PartialRecord {
	head, tail, _ := strings.Cut(line, HeaderSeparator)

	for _, m := range d.meridiem {
		head = strings.ReplaceAll(head, m.From, m.To)
	}

	rec := PartialRecord{
		TimestampText: strings.TrimSpace(head),
		HasTimestamp:  true,
		LineNum:       lineNum,
	}

	author, message, found := strings.Cut(tail, AuthorSeparator)
	if !found {
		rec.Message = tail
		return rec
	}

	if d.stripAuthorSuffix {
		// Exporters append contact details after a comma.
		if i := strings.IndexByte(author, ','); i >= 0 {
			author = author[:i]
		}
	}
	rec.Author = author
	rec.HasAuthor = true
	rec.Message = message
	return rec
}

// Continuation builds the record of a line that belongs to the previous header.
func Continuation(line string, lineNum int) PartialRecord {
	return PartialRecord{Message: line, LineNum: lineNum}
}
