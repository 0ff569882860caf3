// Package present applies verdicts to the document: it swaps blocked
// fragments for placeholders and restores them on an explicit reveal.
//
// This is the pipeline's outward boundary. The scheduler's only obligation
// to a Sink is calling it exactly once per fragment with the final verdict,
// never before the fragment's lifecycle reaches done. Everything visual is
// the sink's business; the core never mutates the document itself.
package present
