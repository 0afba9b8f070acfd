package parser

import "strings"

const (
	noBreakSpace  = "\u00a0"
	leftToRightMk = "\u200e"
)

// Normalizer strips exporter artifacts from a whole transcript.
type Normalizer struct {
	removals []string
}

// NewNormalizer creates a Normalizer that also removes the given attachment markers.
func NewNormalizer(attachmentMarkers []string) *Normalizer {
	removals := []string{noBreakSpace, leftToRightMk}
	for _, m := range attachmentMarkers {
		if m != "" {
			removals = append(removals, m)
		}
	}
	return &Normalizer{removals: removals}
}

// Normalize removes every configured substring, one after another.
// Order matters: a marker split by an invisible character is only
// recognized once that character is gone.
func (n *Normalizer) Normalize(raw string) string {
	text := raw
	for _, r := range n.removals {
		text = strings.ReplaceAll(text, r, "")
	}
	return text
}
