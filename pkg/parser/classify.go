package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Classifier decides whether a physical line opens a new message.
type Classifier struct {
	pattern *regexp.Regexp
}

// NewClassifier compiles a header pattern. The pattern must be anchored
// at the start of the line.
func NewClassifier(pattern string) (*Classifier, error) {
	if !strings.HasPrefix(pattern, "^") {
		return nil, errors.New("header pattern must be anchored with ^")
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compiling header pattern: %w", err)
	}
	return &Classifier{pattern: re}, nil
}

// NewClassifierFromRegexp wraps an already compiled header pattern.
func NewClassifierFromRegexp(re *regexp.Regexp) (*Classifier, error) {
	if re == nil || !strings.HasPrefix(re.String(), "^") {
		return nil, errors.New("header pattern must be anchored with ^")
	}
	return &Classifier{pattern: re}, nil
}

// IsHeader reports whether line starts with a timestamp marker.
func (c *Classifier) IsHeader(line string) bool {
	if line == "" {
		return false
	}
	return c.pattern.MatchString(line)
}
