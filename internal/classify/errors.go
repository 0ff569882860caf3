package classify

import "errors"

// Classifier errors. Each names one of the failure conditions of the remote
// classification call; the engine maps all of them to the fail-open allow
// verdict with the detail attached.
var (
	// ErrEmptyResponse is returned when the endpoint replied 2xx but the
	// message content was empty.
	ErrEmptyResponse = errors.New("classifier returned an empty response")

	// ErrNoJSONObject is returned when no parseable JSON object could be
	// located anywhere in the reply content. This is distinct from a parsed
	// object missing the boolean field (which is a valid "false" verdict):
	// "the model said no" and "we don't know" must stay distinguishable
	// for diagnostics.
	ErrNoJSONObject = errors.New("no JSON object found in classifier response")
)
