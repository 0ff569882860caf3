package model

// MatchSource identifies which classification layer produced a verdict.
type MatchSource string

// Valid match sources, one per pipeline layer plus "none" for allow verdicts.
const (
	// MatchKeyword means a configured keyword was found in the text.
	MatchKeyword MatchSource = "keyword"

	// MatchScript means the script-variant heuristic classified the text.
	MatchScript MatchSource = "script"

	// MatchAI means the remote classifier decided the verdict.
	MatchAI MatchSource = "ai"

	// MatchNone means no layer matched, or the pipeline failed open.
	MatchNone MatchSource = "none"
)

// Verdict is the engine's final block/allow decision for one fragment,
// plus provenance (which layer decided) and optional error detail.
//
// A Verdict is immutable once produced and drives exactly one presentation
// transition. The Err field is diagnostic only: it is never a blocking
// reason. Any verdict carrying a non-empty Err always has ShouldBlock false
// (the fail-open contract).
type Verdict struct {
	// ShouldBlock indicates whether the fragment must be veiled.
	ShouldBlock bool `json:"should_block"`

	// MatchedBy names the layer that decided.
	MatchedBy MatchSource `json:"matched_by"`

	// MatchedKeyword is the keyword that matched, set only when
	// MatchedBy is MatchKeyword.
	MatchedKeyword string `json:"matched_keyword,omitempty"`

	// Err carries the failure detail when the pipeline degraded to allow.
	// Exposed for operator visibility, never as a blocking reason.
	Err string `json:"error,omitempty"`
}

// Allow returns the allow verdict with no match and no error.
func Allow() Verdict {
	return Verdict{ShouldBlock: false, MatchedBy: MatchNone}
}

// AllowWithError returns the fail-open verdict: content is shown and the
// failure detail is attached for diagnostics.
func AllowWithError(err error) Verdict {
	v := Verdict{ShouldBlock: false, MatchedBy: MatchNone}
	if err != nil {
		v.Err = err.Error()
	}
	return v
}

// BlockedByKeyword returns a block verdict attributed to the keyword layer.
func BlockedByKeyword(keyword string) Verdict {
	return Verdict{ShouldBlock: true, MatchedBy: MatchKeyword, MatchedKeyword: keyword}
}

// BlockedByScript returns a block verdict attributed to the script layer.
func BlockedByScript() Verdict {
	return Verdict{ShouldBlock: true, MatchedBy: MatchScript}
}

// FromAI returns the verdict for a successful remote classification.
func FromAI(shouldBlock bool) Verdict {
	return Verdict{ShouldBlock: shouldBlock, MatchedBy: MatchAI}
}
