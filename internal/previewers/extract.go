package previewers

import (
	"regexp"

	apperrors "github.com/meoww-bot/meoww/internal/core/errors"
)

// extractor is an ordered list of patterns for one field. The first pattern
// whose first capture group is non-empty wins. Markup drift is handled by
// appending a pattern, not by touching call sites.
type extractor struct {
	field    string
	patterns []*regexp.Regexp
}

func chain(field string, patterns ...string) extractor {
	e := extractor{field: field, patterns: make([]*regexp.Regexp, 0, len(patterns))}
	for _, p := range patterns {
		e.patterns = append(e.patterns, regexp.MustCompile(p))
	}

	return e
}

// find returns the first capture group of the first matching pattern.
func (e extractor) find(s string) (string, bool) {
	for _, re := range e.patterns {
		m := re.FindStringSubmatch(s)
		if len(m) > 1 && m[1] != "" {
			return m[1], true
		}
	}

	return "", false
}

// require is find that reports a parse failure naming the field.
func (e extractor) require(s string) (string, error) {
	v, ok := e.find(s)
	if !ok {
		return "", apperrors.ParseFailure(e.field)
	}

	return v, nil
}

// findAll returns every match of the first pattern that matches at all.
func (e extractor) findAll(s string) [][]string {
	for _, re := range e.patterns {
		if m := re.FindAllStringSubmatch(s, -1); len(m) > 0 {
			return m
		}
	}

	return nil
}

// or returns the extracted value or fallback.
func (e extractor) or(s, fallback string) string {
	if v, ok := e.find(s); ok {
		return v
	}

	return fallback
}
