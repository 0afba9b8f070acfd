package parser

import "strings"

// Cleaner normalizes message bodies.
type Cleaner struct {
	extensions []string
}

// NewCleaner creates a Cleaner restoring the given media extensions.
// A leading dot on an extension is ignored; empty extensions and
// extensions containing spaces are skipped.
func NewCleaner(extensions []string) *Cleaner {
	exts := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		ext = strings.TrimPrefix(ext, ".")
		if ext == "" || strings.Contains(ext, " ") {
			continue
		}
		exts = append(exts, ext)
	}
	return &Cleaner{extensions: exts}
}

// Clean collapses repeated spaces, trims spaces and restores
// "name webp" placeholders to "name.webp". Clean is idempotent.
func (c *Cleaner) Clean(message string) string {
	s := strings.Trim(collapseSpaces(message), " ")
	for _, ext := range c.extensions {
		s = strings.ReplaceAll(s, " "+ext, "."+ext)
	}
	return s
}

// collapseSpaces replaces runs of U+0020 with a single one.
// Tabs and other whitespace are left alone.
func collapseSpaces(s string) string {
	if !strings.Contains(s, "  ") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	prevSpace := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch == ' ' {
			if prevSpace {
				continue
			}
			prevSpace = true
		} else {
			prevSpace = false
		}
		b.WriteByte(ch)
	}
	return b.String()
}
