// Package fuzzy scores how well a query matches candidate text.
package fuzzy

import (
	"strings"

	sfuzzy "github.com/sahilm/fuzzy"
)

// Matcher scores text against a pattern. ok is false when the pattern does
// not match. An empty pattern matches everything with score 0; any other
// match scores at least 1.
type Matcher interface {
	Match(text, pattern string) (score int, ok bool)
}

// SubsequenceMatcher matches when the runes of the pattern appear in order
// in the text, ranking consecutive and word-start matches higher.
type SubsequenceMatcher struct{}

// New returns the default matcher.
func New() *SubsequenceMatcher {
	return &SubsequenceMatcher{}
}

// Match implements Matcher.
func (*SubsequenceMatcher) Match(text, pattern string) (int, bool) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return 0, true
	}
	if text == "" {
		return 0, false
	}

	matches := sfuzzy.Find(pattern, []string{text})
	if len(matches) == 0 {
		return 0, false
	}
	return max(matches[0].Score, 1), true
}

// Positions returns the byte offsets in text matched by pattern, for
// highlighting. It returns nil when there is no match.
func Positions(text, pattern string) []int {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" || text == "" {
		return nil
	}
	matches := sfuzzy.Find(pattern, []string{text})
	if len(matches) == 0 {
		return nil
	}
	return matches[0].MatchedIndexes
}

// Best scores pattern against every candidate and returns the highest score.
func Best(m Matcher, pattern string, candidates ...string) (int, bool) {
	best, found := 0, false
	for _, c := range candidates {
		if s, ok := m.Match(c, pattern); ok && (!found || s > best) {
			best, found = s, true
		}
	}
	return best, found
}
