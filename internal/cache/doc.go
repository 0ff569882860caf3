// Package cache provides SQLite-based persistence for classification
// verdicts, keyed by content hash.
//
// Only the hash and the verdict are stored, never the fragment text, so the
// cache can persist across sessions without retaining page content. Verdicts
// that carry a diagnostic error are not stored; a degraded pipeline should
// retry, not replay its failure.
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the cache is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
package cache
