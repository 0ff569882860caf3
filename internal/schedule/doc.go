// Package schedule drives the scan pipeline: it discovers fragments via the
// scanner, deduplicates and throttles their classification, and delivers
// each final verdict to the presentation sink exactly once.
//
// A Scheduler owns all session state (the analyzed-hash set and the
// element lifecycle map) explicitly, per instance. Multiple sessions
// (tests, multiple documents) never share state.
//
// Three triggers exist: one initial full-document scan, a stream of
// change notifications announcing inserted subtrees, and nothing else;
// there is no periodic rescan. Notifications are coalesced in a debounce
// window so notification storms on high-churn pages collapse into a single
// batch scan. Within a batch, fragments classify in small concurrent groups
// with a short yield between groups, so a long queue never monopolizes the
// host's work.
package schedule
