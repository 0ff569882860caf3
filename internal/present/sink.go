package present

import "textveil/internal/model"

// MarkerAttr marks nodes textveil itself injected or rewrote. The scanner
// skips marked elements so placeholders are never rediscovered as
// candidates.
const MarkerAttr = "data-textveil"

// DefaultPlaceholder is the text shown in place of blocked content.
const DefaultPlaceholder = "[content hidden]"

// RevealHint is appended to the placeholder when reveal is allowed.
const RevealHint = " (reveal available)"

// Sink receives exactly one final verdict per fragment and is responsible
// for the visual transition. Implementations must tolerate being called for
// allow verdicts (usually a no-op).
type Sink interface {
	Apply(fragment *model.Fragment, verdict model.Verdict) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(fragment *model.Fragment, verdict model.Verdict) error

// Apply implements Sink.
func (f SinkFunc) Apply(fragment *model.Fragment, verdict model.Verdict) error {
	return f(fragment, verdict)
}
