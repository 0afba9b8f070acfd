package parser

import "time"

type assemblyState int

const (
	awaitingHeader assemblyState = iota
	inMessage
)

// Assembler carries the last header's timestamp and author onto the
// continuation lines that follow it.
//
// Before the first header every line is dropped. After a header without
// an author every line is dropped until the next authored header.
type Assembler struct {
	timestamps *TimestampParser
	source     string

	state     assemblyState
	held      time.Time
	author    string
	hasAuthor bool

	stats Stats
}

// NewAssembler creates an Assembler in the awaiting-header state.
func NewAssembler(timestamps *TimestampParser, source string) *Assembler {
	return &Assembler{
		timestamps: timestamps,
		source:     source,
	}
}

// Feed consumes one partial record. It returns the resolved record and
// true when the record survives the filter.
func (a *Assembler) Feed(p PartialRecord) (Record, bool, error) {
	a.stats.Lines++

	if p.HasTimestamp {
		a.stats.Headers++
		ts, err := a.timestamps.Parse(p.TimestampText, p.LineNum)
		if err != nil {
			return Record{}, false, err
		}
		a.state = inMessage
		a.held = ts
		a.author = p.Author
		a.hasAuthor = p.HasAuthor
	} else {
		a.stats.Continuations++
	}

	if a.state == awaitingHeader || !a.hasAuthor {
		a.stats.Dropped++
		return Record{}, false, nil
	}

	a.stats.Records++
	return Record{
		Timestamp: a.held,
		Author:    a.author,
		Message:   p.Message,
		Source:    a.source,
		LineNum:   p.LineNum,
	}, true, nil
}

// Stats returns the counters accumulated so far.
func (a *Assembler) Stats() Stats {
	return a.stats
}

// Assemble runs a fresh Assembler over partials.
func Assemble(timestamps *TimestampParser, partials []PartialRecord) ([]Record, Stats, error) {
	a := NewAssembler(timestamps, "")
	records := make([]Record, 0, len(partials))
	for _, p := range partials {
		rec, ok, err := a.Feed(p)
		if err != nil {
			return nil, a.Stats(), err
		}
		if ok {
			records = append(records, rec)
		}
	}
	return records, a.Stats(), nil
}
