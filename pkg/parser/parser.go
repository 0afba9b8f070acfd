package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// ctxCheckInterval is how many lines are processed between cancellation checks.
const ctxCheckInterval = 4096

// Parser turns a transcript into records. A Parser is immutable after
// construction and safe for concurrent use.
type Parser struct {
	normalizer *Normalizer
	classifier *Classifier
	decomposer *Decomposer
	cleaner    *Cleaner
	timestamps *TimestampParser
	logger     *slog.Logger
}

// New creates a Parser from the default options modified by opts.
func New(opts ...Option) (*Parser, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return NewWithOptions(o)
}

// NewWithOptions creates a Parser from fully specified options.
func NewWithOptions(o Options) (*Parser, error) {
	if o.HeaderPattern == "" {
		o.HeaderPattern = DefaultHeaderPattern
	}
	if o.Layout == "" {
		return nil, errors.New("timestamp layout is required")
	}
	if o.Location == nil {
		o.Location = time.UTC
	}

	var (
		classifier *Classifier
		err        error
	)
	if o.HeaderRegexp != nil {
		classifier, err = NewClassifierFromRegexp(o.HeaderRegexp)
	} else {
		classifier, err = NewClassifier(o.HeaderPattern)
	}
	if err != nil {
		return nil, err
	}

	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Parser{
		normalizer: NewNormalizer(o.AttachmentMarkers),
		classifier: classifier,
		decomposer: NewDecomposer(o.Meridiem, o.StripAuthorSuffix),
		cleaner:    NewCleaner(o.MediaExtensions),
		timestamps: NewTimestampParser(o.Layout, o.Location),
		logger:     logger,
	}, nil
}

// Partials normalizes text and returns one PartialRecord per non-empty line.
func (p *Parser) Partials(text string) []PartialRecord {
	var partials []PartialRecord
	forEachLine(p.normalizer.Normalize(text), func(line string, lineNum int) bool {
		partials = append(partials, p.partial(line, lineNum))
		return true
	})
	return partials
}

func (p *Parser) partial(line string, lineNum int) PartialRecord {
	var rec PartialRecord
	if p.classifier.IsHeader(line) {
		rec = p.decomposer.Decompose(line, lineNum)
	} else {
		rec = Continuation(line, lineNum)
	}
	rec.Message = p.cleaner.Clean(rec.Message)
	return rec
}

// Parse parses an in-memory transcript.
func (p *Parser) Parse(text string) (*Result, error) {
	return p.ParseContext(context.Background(), text, "")
}

// ParseContext parses an in-memory transcript, tagging records with source.
func (p *Parser) ParseContext(ctx context.Context, text, source string) (*Result, error) {
	asm := NewAssembler(p.timestamps, source)
	result := &Result{Source: source, Records: []Record{}}

	var ferr error
	processed := 0
	forEachLine(p.normalizer.Normalize(text), func(line string, lineNum int) bool {
		processed++
		if processed%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				ferr = err
				return false
			}
		}

		rec, ok, err := asm.Feed(p.partial(line, lineNum))
		if err != nil {
			ferr = err
			return false
		}
		if ok {
			result.Records = append(result.Records, rec)
		}
		return true
	})
	result.Stats = asm.Stats()

	if ferr != nil {
		if source != "" {
			return nil, fmt.Errorf("parsing %s: %w", source, ferr)
		}
		return nil, ferr
	}

	p.logger.Debug("parsed transcript",
		"source", source,
		"lines", result.Stats.Lines,
		"headers", result.Stats.Headers,
		"records", result.Stats.Records,
		"dropped", result.Stats.Dropped)

	return result, nil
}

// ParseReader reads a whole transcript from r and parses it.
func (p *Parser) ParseReader(ctx context.Context, r io.Reader, source string) (*Result, error) {
	text, err := ReadTranscript(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", source, err)
	}
	return p.ParseContext(ctx, text, source)
}

// ParseFile opens and parses the transcript at path.
func (p *Parser) ParseFile(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return nil, fmt.Errorf("opening transcript %s: %w", path, err)
	}
	defer f.Close()

	return p.ParseReader(ctx, f, path)
}

// forEachLine calls fn for every non-empty line with its 1-based number.
// A trailing carriage return is dropped first. Iteration stops when fn
// returns false.
func forEachLine(text string, fn func(line string, lineNum int) bool) {
	lineNum := 0
	for text != "" {
		lineNum++
		line, rest, _ := strings.Cut(text, "\n")
		text = rest
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		if !fn(line, lineNum) {
			return
		}
	}
}
