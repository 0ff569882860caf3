// Package model defines the core data structures shared across textveil:
// fragments of candidate text, classification verdicts, element lifecycle
// states, and per-session scan reports.
//
// All types in this package are plain data with no behavior beyond
// construction and formatting. They carry no persistence concerns; every
// instance is scoped to a single scan session and discarded at teardown.
package model
