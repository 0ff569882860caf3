package classify

import (
	"unicode"

	"github.com/longbridgeapp/opencc"
)

// minHanRunes is the minimum number of Han-script runes required for the
// detector to attempt a classification. Below this the text is
// undeterminable and the detector answers "do not block".
const minHanRunes = 3

// ScriptVariantDetector classifies text as Simplified Chinese using
// round-trip conversion divergence.
//
// The heuristic: convert the text Simplified→Traditional (forward) and
// Traditional→Simplified (reverse), then count per-rune divergence of each
// result against the original at matching indexes. Simplified text mostly
// survives the reverse transform untouched but changes under the forward
// one, so it is classified Simplified when the forward change count strictly
// exceeds the reverse count and is nonzero.
//
// The per-index rune comparison is the literal contract, not edit distance
// and not a general language detector; substituting a "better" classifier
// would silently change verdicts.
type ScriptVariantDetector struct {
	s2t *opencc.OpenCC
	t2s *opencc.OpenCC
}

// NewScriptVariantDetector builds the detector, loading both conversion
// tables. Construction can fail if the embedded dictionaries are
// unavailable; the engine treats a missing detector as a disabled layer.
func NewScriptVariantDetector() (*ScriptVariantDetector, error) {
	s2t, err := opencc.New("s2t")
	if err != nil {
		return nil, err
	}
	t2s, err := opencc.New("t2s")
	if err != nil {
		return nil, err
	}
	return &ScriptVariantDetector{s2t: s2t, t2s: t2s}, nil
}

// IsSimplified reports whether text reads as Simplified Chinese.
// Degenerate inputs (fewer than three Han runes, conversion failure) yield
// false: undeterminable never blocks.
func (d *ScriptVariantDetector) IsSimplified(text string) bool {
	if hanCount(text) < minHanRunes {
		return false
	}

	toTraditional, err := d.s2t.Convert(text)
	if err != nil {
		return false
	}
	toSimplified, err := d.t2s.Convert(text)
	if err != nil {
		return false
	}

	forward := divergence(text, toTraditional)
	reverse := divergence(text, toSimplified)
	return forward > reverse && forward > 0
}

// hanCount returns the number of runes in the Han script range.
func hanCount(text string) int {
	count := 0
	for _, r := range text {
		if unicode.Is(unicode.Han, r) {
			count++
		}
	}
	return count
}

// divergence counts rune positions where a and b differ.
// Runes are compared at matching indexes; a length difference contributes
// one divergence per unmatched rune. Conversions are rune-for-rune in
// practice, so the length term rarely fires, but it keeps the count total.
func divergence(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)

	n := len(ra)
	if len(rb) < n {
		n = len(rb)
	}

	count := 0
	for i := 0; i < n; i++ {
		if ra[i] != rb[i] {
			count++
		}
	}
	if len(ra) > n {
		count += len(ra) - n
	}
	if len(rb) > n {
		count += len(rb) - n
	}
	return count
}
