package model

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxExcerptLength is the maximum number of runes from a fragment's text
// included in a report. Reports summarize verdicts; they are not a store of
// page content, so excerpts stay short.
const MaxExcerptLength = 120

// ScanReport summarizes one scan session over a single document.
//
// Design decision: the report accumulates results as verdicts arrive rather
// than being assembled at the end because the scheduler is the only
// component that observes every verdict exactly once, and recording at
// delivery time keeps the exactly-once property and the report in lockstep.
type ScanReport struct {
	// SessionID uniquely identifies this scan session.
	SessionID string `json:"session_id"`

	// Target is the file path or URL that was scanned.
	Target string `json:"target"`

	// StartedAt is when the session began.
	StartedAt time.Time `json:"started_at"`

	// Elapsed is the total wall time of the session.
	Elapsed time.Duration `json:"elapsed"`

	// FragmentsScanned counts fragments that received a verdict.
	FragmentsScanned int `json:"fragments_scanned"`

	// FragmentsDeduplicated counts fragments dropped because their content
	// hash had already been analyzed in this session.
	FragmentsDeduplicated int `json:"fragments_deduplicated"`

	// Blocked counts block verdicts.
	Blocked int `json:"blocked"`

	// Allowed counts allow verdicts, including fail-open allows.
	Allowed int `json:"allowed"`

	// Errored counts verdicts that carried a diagnostic error.
	Errored int `json:"errored"`

	// BlockedByKeyword, BlockedByScript and BlockedByAI break down the
	// blocked count by deciding layer.
	BlockedByKeyword int `json:"blocked_by_keyword"`
	BlockedByScript  int `json:"blocked_by_script"`
	BlockedByAI      int `json:"blocked_by_ai"`

	// Results holds the per-fragment outcomes in delivery order.
	Results []FragmentResult `json:"results"`
}

// FragmentResult is the reported outcome for one fragment.
type FragmentResult struct {
	// ContentHash identifies the fragment's text.
	ContentHash string `json:"content_hash"`

	// Excerpt is a truncated preview of the text for human review.
	Excerpt string `json:"excerpt"`

	// Verdict is the final decision for the fragment.
	Verdict Verdict `json:"verdict"`
}

// NewScanReport creates a report for a new session over target.
func NewScanReport(target string) *ScanReport {
	return &ScanReport{
		SessionID: uuid.NewString(),
		Target:    target,
		StartedAt: time.Now(),
		Results:   make([]FragmentResult, 0),
	}
}

// Record accumulates one delivered verdict into the report.
func (r *ScanReport) Record(f *Fragment, v Verdict) {
	r.FragmentsScanned++
	if v.ShouldBlock {
		r.Blocked++
		switch v.MatchedBy {
		case MatchKeyword:
			r.BlockedByKeyword++
		case MatchScript:
			r.BlockedByScript++
		case MatchAI:
			r.BlockedByAI++
		}
	} else {
		r.Allowed++
	}
	if v.Err != "" {
		r.Errored++
	}

	r.Results = append(r.Results, FragmentResult{
		ContentHash: f.ContentHash,
		Excerpt:     Excerpt(f.RawText),
		Verdict:     v,
	})
}

// RecordDeduplicated notes a fragment dropped by the analyzed-hash set.
func (r *ScanReport) RecordDeduplicated() {
	r.FragmentsDeduplicated++
}

// Finish stamps the elapsed time on the report.
func (r *ScanReport) Finish() {
	r.Elapsed = time.Since(r.StartedAt)
}

// Excerpt truncates text to MaxExcerptLength runes, appending an ellipsis
// when truncation occurred.
func Excerpt(text string) string {
	if utf8.RuneCountInString(text) <= MaxExcerptLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:MaxExcerptLength]) + "…"
}
