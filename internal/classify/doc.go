// Package classify implements the layered classification pipeline: keyword
// matching, script-variant detection, and a remote AI classifier, orchestrated
// by the Engine into an ordered, short-circuiting decision.
//
// Layer order is fixed at KEYWORD → SCRIPT → AI because the local layers are
// free and the AI layer costs money and latency. A local block short-circuits
// the remote call entirely; that skip is the cost-saving contract, not an
// optimization that may be dropped.
//
// The Engine's public surface never returns an error and never blocks on an
// error path. Any failure anywhere in the pipeline (classifier HTTP failure,
// parse failure, internal fault) degrades to an allow verdict carrying the
// failure detail for diagnostics. Content is shown, not hidden, whenever the
// system is uncertain.
package classify
