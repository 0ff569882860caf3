package classify

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// KeywordMatcher performs ordered, case-insensitive substring matching
// against a pre-normalized keyword list.
//
// An empty keyword list means the matcher never matches; that is how
// "keyword layer disabled" is represented. The matcher itself carries no
// enabled flag.
//
// Matching is a raw substring test with no word-boundary awareness
// ("die" matches "diet"). This is deliberate: tightening it to word
// boundaries would silently change observable verdicts.
type KeywordMatcher struct {
	// keywords holds trimmed, lowercased, NFC-normalized, non-empty
	// keywords in configuration order. Normalization happens once at
	// construction, not per call.
	keywords []string
}

// NewKeywordMatcher creates a matcher over the given keywords.
// The keywords are expected to be pre-normalized (config.Settings.KeywordList
// does this); any stragglers are normalized here so the matcher stays a pure
// function of its list. Keywords get the same NFC normalization as the text
// they will be matched against.
func NewKeywordMatcher(keywords []string) *KeywordMatcher {
	normalized := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = norm.NFC.String(strings.ToLower(strings.TrimSpace(kw)))
		if kw != "" {
			normalized = append(normalized, kw)
		}
	}
	return &KeywordMatcher{keywords: normalized}
}

// Match returns the first keyword in list order contained in text,
// case-insensitively. The list-order tie-break keeps verdict provenance
// deterministic when several keywords match.
//
// Text is NFC-normalized before matching, the same normalization the content
// hash uses. Fragments that hash identically must match identically, or a
// deduplicated or cached verdict could stand in for text this matcher would
// have decided differently.
func (m *KeywordMatcher) Match(text string) (string, bool) {
	if len(m.keywords) == 0 {
		return "", false
	}
	lower := norm.NFC.String(strings.ToLower(text))
	for _, kw := range m.keywords {
		if strings.Contains(lower, kw) {
			return kw, true
		}
	}
	return "", false
}

// Size returns the number of configured keywords.
func (m *KeywordMatcher) Size() int {
	return len(m.keywords)
}
