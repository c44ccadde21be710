package store

import (
	"regexp"
	"strings"
)

var (
	slugInvalidRe  = regexp.MustCompile(`[^a-z0-9-]`)
	slugCollapseRe = regexp.MustCompile(`-+`)
)

// Slugify converts a document name to its URL-safe identifier: lowercased,
// with runs of whitespace and punctuation collapsed to single hyphens.
// It is deterministic and a fixed point on already-slugged input.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugInvalidRe.ReplaceAllString(s, "-")
	s = slugCollapseRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 80 {
		s = strings.Trim(s[:80], "-")
	}
	return s
}
