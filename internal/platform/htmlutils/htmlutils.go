// Package htmlutils provides text processing helpers for scraped markup.
//
// The package handles:
//   - HTML entity decoding
//   - Tag stripping with line-break preservation
//   - Rune-safe truncation for Discord text limits
//   - Tag-list rendering as inline code chips
//   - Resolution of protocol-relative and root-relative URLs
package htmlutils

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// Discord text limits used by previews.
const (
	// DescriptionLimit caps descriptive text blocks.
	DescriptionLimit = 200
	// TagBlockLimit caps a rendered tag block.
	TagBlockLimit = 1000
	// TagBlockPrefix starts every tag block.
	TagBlockPrefix = "🏷️ "

	ellipsis = "..."
)

var (
	breakRegex     = regexp.MustCompile(`(?i)<br\s*/?>`)
	paraCloseRegex = regexp.MustCompile(`(?i)</p>`)
	whitespace     = regexp.MustCompile(`\s+`)
	extraSlashes   = regexp.MustCompile(`([^:])//+`)

	strictPolicy = bluemonday.StrictPolicy()
)

// DecodeEntities decodes named and numeric HTML entities.
func DecodeEntities(text string) string {
	if text == "" {
		return ""
	}

	return html.UnescapeString(text)
}

// StripTags removes every tag from text, turning <br> and </p> into newlines,
// and returns the decoded, trimmed result.
func StripTags(text string) string {
	text = breakRegex.ReplaceAllString(text, "\n")
	text = paraCloseRegex.ReplaceAllString(text, "\n")
	text = strictPolicy.Sanitize(text)

	return strings.TrimSpace(DecodeEntities(text))
}

// Cut returns at most limit runes of text without an ellipsis.
func Cut(text string, limit int) string {
	if limit <= 0 {
		return ""
	}

	if utf8.RuneCountInString(text) <= limit {
		return text
	}

	return string([]rune(text)[:limit])
}

// Truncate shortens text to limit runes, ending it with "..." when anything
// was removed.
func Truncate(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}

	keep := limit - len(ellipsis)
	if keep < 0 {
		keep = 0
	}

	return string([]rune(text)[:keep]) + ellipsis
}

// TagChip renders a tag as an inline code chip, without inner whitespace
// and with a leading '#'.
func TagChip(tag string) string {
	clean := whitespace.ReplaceAllString(tag, "")
	if !strings.HasPrefix(clean, "#") {
		clean = "#" + clean
	}

	return "`" + clean + "`"
}

// TagBlock renders tags as a "🏷️ " line capped at TagBlockLimit runes.
// It returns "" when there are no tags.
func TagBlock(tags []string) string {
	chips := make([]string, 0, len(tags))

	for _, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			continue
		}

		chips = append(chips, TagChip(tag))
	}

	if len(chips) == 0 {
		return ""
	}

	return Cut(TagBlockPrefix+strings.Join(chips, " "), TagBlockLimit)
}

// ResolveURL turns protocol-relative ("//host/x") and root-relative ("/x")
// references into absolute https URLs against base, and collapses duplicate
// slashes in the path.
func ResolveURL(raw, base string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	switch {
	case strings.HasPrefix(raw, "//"):
		raw = "https:" + raw
	case strings.HasPrefix(raw, "/"):
		raw = strings.TrimRight(base, "/") + raw
	case !strings.Contains(raw, "://"):
		if b, err := url.Parse(base); err == nil {
			if ref, err := url.Parse(raw); err == nil {
				raw = b.ResolveReference(ref).String()
			}
		}
	}

	return extraSlashes.ReplaceAllString(raw, "$1/")
}

// CleanText decodes entities and collapses runs of whitespace.
func CleanText(text string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(DecodeEntities(text), " "))
}
