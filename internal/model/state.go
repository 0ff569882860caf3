package model

// ElementState tracks the classification lifecycle of a discovered element.
//
// States move forward only: unseen → pending → processing → done. The single
// backward-looking transition is an explicit reveal of a blocked element
// (done → revealed), which restores the original content but never re-enters
// the pipeline.
type ElementState int

// Element lifecycle states in pipeline order.
const (
	// StateUnseen is the zero value: the element has never been enqueued.
	StateUnseen ElementState = iota

	// StatePending means the element is enqueued and waiting for a batch.
	StatePending

	// StateProcessing means a classification is in flight for the element.
	StateProcessing

	// StateDone means a final verdict was delivered to the presentation sink.
	StateDone

	// StateRevealed means a blocked element was explicitly unveiled by the
	// user. Terminal; revealed elements are never rescanned.
	StateRevealed
)

// String returns the lifecycle state name for logging.
func (s ElementState) String() string {
	switch s {
	case StateUnseen:
		return "unseen"
	case StatePending:
		return "pending"
	case StateProcessing:
		return "processing"
	case StateDone:
		return "done"
	case StateRevealed:
		return "revealed"
	default:
		return "unknown"
	}
}

// InFlight reports whether the element is already owned by the pipeline.
// Enqueue must drop elements for which this is true (idempotent enqueue).
func (s ElementState) InFlight() bool {
	return s == StatePending || s == StateProcessing || s == StateDone || s == StateRevealed
}
