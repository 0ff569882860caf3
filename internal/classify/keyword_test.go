package classify

import (
	"testing"

	"textveil/internal/model"
)

// TestKeywordMatcherEmptyList verifies that an empty keyword list never
// matches: this is how "layer disabled" is represented.
func TestKeywordMatcherEmptyList(t *testing.T) {
	t.Parallel()

	for _, keywords := range [][]string{nil, {}, {"", "  "}} {
		m := NewKeywordMatcher(keywords)
		if kw, ok := m.Match("any text with spoiler words in it"); ok {
			t.Errorf("empty matcher matched %q", kw)
		}
		if m.Size() != 0 {
			t.Errorf("Size = %d, want 0", m.Size())
		}
	}
}

// TestKeywordMatcherMatch verifies substring semantics and tie-breaking.
func TestKeywordMatcherMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		keywords []string
		text     string
		want     string
		wantOK   bool
	}{
		{
			name:     "simple hit",
			keywords: []string{"spoiler"},
			text:     "Huge spoiler: he dies",
			want:     "spoiler",
			wantOK:   true,
		},
		{
			name:     "case-insensitive both sides",
			keywords: []string{"SPOILER"},
			text:     "huge Spoiler ahead",
			want:     "spoiler",
			wantOK:   true,
		},
		{
			name:     "raw substring, no word boundary",
			keywords: []string{"die"},
			text:     "my new diet plan is great",
			want:     "die",
			wantOK:   true,
		},
		{
			name:     "first keyword in list order wins",
			keywords: []string{"finale", "ending"},
			text:     "the ending of the finale",
			want:     "finale",
			wantOK:   true,
		},
		{
			name:     "no hit",
			keywords: []string{"spoiler"},
			text:     "a perfectly safe sentence",
			wantOK:   false,
		},
		{
			name:     "unicode keyword",
			keywords: []string{"剧透"},
			text:     "前方剧透警告",
			want:     "剧透",
			wantOK:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := NewKeywordMatcher(tt.keywords)
			got, ok := m.Match(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("Match ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Match = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestKeywordMatcherUnicodeNormalization verifies that matching uses the
// same NFC normalization as the content hash. Two encodings of the same
// visible text share one hash, so they must also share one matching outcome.
func TestKeywordMatcherUnicodeNormalization(t *testing.T) {
	t.Parallel()

	const composed = "café"           // NFC: single code point for é
	const decomposed = "café"        // NFD: e + combining acute accent
	textNFC := "the " + composed + " is open today"
	textNFD := "the " + decomposed + " is open today"

	if model.HashContent(textNFC) != model.HashContent(textNFD) {
		t.Fatal("test premise broken: NFC and NFD texts should hash identically")
	}

	m := NewKeywordMatcher([]string{composed})
	if kw, ok := m.Match(textNFD); !ok || kw != composed {
		t.Errorf("NFC keyword against NFD text: Match = %q, %v; want %q, true", kw, ok, composed)
	}

	// And the other way around: a decomposed keyword against composed text.
	m = NewKeywordMatcher([]string{decomposed})
	if kw, ok := m.Match(textNFC); !ok || kw != composed {
		t.Errorf("NFD keyword against NFC text: Match = %q, %v; want %q, true", kw, ok, composed)
	}
}

// TestKeywordMatcherNormalizesStragglers verifies construction-time
// normalization of unnormalized input.
func TestKeywordMatcherNormalizesStragglers(t *testing.T) {
	t.Parallel()

	m := NewKeywordMatcher([]string{"  Leak  ", ""})
	if m.Size() != 1 {
		t.Fatalf("Size = %d, want 1", m.Size())
	}
	if kw, ok := m.Match("the plot leaked early"); !ok || kw != "leak" {
		t.Errorf("Match = %q, %v", kw, ok)
	}
}
