// Package detector identifies which exporter locale produced a transcript.
package detector

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/ccollicutt/chatlog/pkg/parser"
)

// DetectionResult holds the result of analyzing a transcript.
type DetectionResult struct {
	Matches       []ProfileMatch // Profiles that matched, best first
	SampledLines  int            // Number of non-empty lines sampled
	HeaderLines   int            // Number of lines the best profile recognized as headers
	AmbiguityNote string         // Warning about day/month ordering if applicable
}

// ProfileMatch represents a profile that matched with its confidence score.
type ProfileMatch struct {
	Profile    *Profile
	Confidence float64   // 0.0 to 1.0 (share of sampled lines parsed as headers)
	MatchCount int       // Number of header lines whose timestamp parsed
	SampleLine string    // Example line that matched
	ParsedTime time.Time // Parsed timestamp from sample
}

// Detector samples transcripts and scores them against exporter profiles.
type Detector struct {
	profiles   []*Profile
	sampleSize int
}

// Option configures the Detector.
type Option func(*Detector)

// WithSampleSize sets the number of lines to sample (default 200).
func WithSampleSize(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.sampleSize = n
		}
	}
}

// WithProfiles replaces the built-in profiles.
func WithProfiles(profiles []*Profile) Option {
	return func(d *Detector) {
		d.profiles = profiles
	}
}

// New creates a new Detector with default profiles.
func New(opts ...Option) *Detector {
	d := &Detector{
		profiles:   DefaultProfiles(),
		sampleSize: 200,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DetectFromFile analyzes a transcript file and returns detected profiles.
func (d *Detector) DetectFromFile(ctx context.Context, path string) (*DetectionResult, error) {
	lines, err := d.sampleFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return d.DetectFromLines(lines)
}

// profileStats accumulates matches for one profile.
type profileStats struct {
	index      int
	profile    *Profile
	classifier *parser.Classifier
	decomposer *parser.Decomposer
	timestamps *parser.TimestampParser
	matchCount int
	sampleLine string
	parsedTime time.Time
}

// DetectFromLines scores a slice of transcript lines. It fails only when a
// profile's header pattern does not compile.
func (d *Detector) DetectFromLines(lines []string) (*DetectionResult, error) {
	normalizer := parser.NewNormalizer(nil)

	sampled := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(normalizer.Normalize(line))
		if line != "" {
			sampled = append(sampled, line)
		}
	}

	result := &DetectionResult{SampledLines: len(sampled)}
	if len(sampled) == 0 {
		return result, nil
	}

	stats := make([]*profileStats, 0, len(d.profiles))
	for i, p := range d.profiles {
		classifier, err := parser.NewClassifier(p.HeaderPattern)
		if err != nil {
			return nil, fmt.Errorf("profile %q: %w", p.Name, err)
		}
		stats = append(stats, &profileStats{
			index:      i,
			profile:    p,
			classifier: classifier,
			decomposer: parser.NewDecomposer(p.Meridiem, true),
			timestamps: parser.NewTimestampParser(p.Layout, time.UTC),
		})
	}

	for n, line := range sampled {
		for _, s := range stats {
			if !s.classifier.IsHeader(line) {
				continue
			}
			partial := s.decomposer.Decompose(line, n+1)
			ts, err := s.timestamps.Parse(partial.TimestampText, n+1)
			if err != nil {
				continue
			}
			if s.matchCount == 0 {
				s.sampleLine = line
				s.parsedTime = ts
			}
			s.matchCount++
		}
	}

	for _, s := range stats {
		if s.matchCount == 0 {
			continue
		}
		result.Matches = append(result.Matches, ProfileMatch{
			Profile:    s.profile,
			Confidence: float64(s.matchCount) / float64(len(sampled)),
			MatchCount: s.matchCount,
			SampleLine: s.sampleLine,
			ParsedTime: s.parsedTime,
		})
	}

	// Stable sort keeps profile order for equal counts.
	slices.SortStableFunc(result.Matches, func(a, b ProfileMatch) int {
		return b.MatchCount - a.MatchCount
	})

	if best := result.BestMatch(); best != nil {
		result.HeaderLines = best.MatchCount
		result.AmbiguityNote = ambiguityNote(result.Matches)
	}

	return result, nil
}

// ambiguityNote warns when the best profile's day/month sibling parsed
// exactly as many headers, meaning no sampled day exceeded 12.
func ambiguityNote(matches []ProfileMatch) string {
	best := matches[0]
	for _, m := range matches[1:] {
		if m.Profile.Family != best.Profile.Family || m.Profile.DayFirst == best.Profile.DayFirst {
			continue
		}
		if m.MatchCount != best.MatchCount {
			continue
		}
		order := "day/month"
		if !best.Profile.DayFirst {
			order = "month/day"
		}
		return fmt.Sprintf("No sampled date had a day above 12, so day/month order could not be confirmed. "+
			"Assuming %s; if dates come out wrong use layout %q.", order, m.Profile.Layout)
	}
	return ""
}

// sampleFile reads up to sampleSize non-empty lines from a transcript.
func (d *Detector) sampleFile(ctx context.Context, path string) ([]string, error) {
	// #nosec G304 - path is provided by user via CLI
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(parser.NewTranscriptReader(file))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for len(lines) < d.sampleSize && scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

// BestMatch returns the highest confidence match, or nil if none found.
func (r *DetectionResult) BestMatch() *ProfileMatch {
	if len(r.Matches) == 0 {
		return nil
	}
	return &r.Matches[0]
}

// HasMatch returns true if at least one profile matched.
func (r *DetectionResult) HasMatch() bool {
	return len(r.Matches) > 0
}
