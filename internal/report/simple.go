package report

import (
	"fmt"
	"io"
	"strings"

	"textveil/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showAllowed controls whether allowed fragments are listed
	// individually. Blocked fragments are always listed.
	showAllowed bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowAllowed configures the writer to list allowed fragments as well
// as blocked ones.
func WithShowAllowed(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showAllowed = show
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter:  newBaseWriter(output),
		showAllowed: false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.ScanReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writeResults(&sb, report)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with session information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.ScanReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         TEXTVEIL SCAN REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Target:     %s\n", report.Target))
	sb.WriteString(fmt.Sprintf("Session:    %s\n", report.SessionID))
	sb.WriteString(fmt.Sprintf("Started:    %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Elapsed:    %s\n", report.Elapsed))
	sb.WriteString("\n")
}

// writeSummary writes the verdict summary section.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.ScanReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  Scanned:       %d fragments\n", report.FragmentsScanned))
	sb.WriteString(fmt.Sprintf("  Deduplicated:  %d\n", report.FragmentsDeduplicated))
	sb.WriteString(fmt.Sprintf("  Blocked:       %d (keyword %d, script %d, ai %d)\n",
		report.Blocked, report.BlockedByKeyword, report.BlockedByScript, report.BlockedByAI))
	sb.WriteString(fmt.Sprintf("  Allowed:       %d\n", report.Allowed))
	sb.WriteString(fmt.Sprintf("  Errored:       %d\n", report.Errored))
	sb.WriteString("\n")
}

// writeResults writes the per-fragment results section.
func (w *SimpleWriter) writeResults(sb *strings.Builder, report *model.ScanReport) {
	listed := 0
	for _, r := range report.Results {
		if r.Verdict.ShouldBlock || w.showAllowed {
			listed++
		}
	}
	if listed == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FRAGMENTS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, r := range report.Results {
		if !r.Verdict.ShouldBlock && !w.showAllowed {
			continue
		}

		sb.WriteString(fmt.Sprintf("  [%s] %s\n", verdictLabel(r.Verdict), r.ContentHash))
		sb.WriteString(fmt.Sprintf("      %q\n", r.Excerpt))
		if r.Verdict.MatchedKeyword != "" {
			sb.WriteString(fmt.Sprintf("      keyword: %s\n", r.Verdict.MatchedKeyword))
		}
		if r.Verdict.Err != "" {
			sb.WriteString(fmt.Sprintf("      error: %s\n", r.Verdict.Err))
		}
		sb.WriteString("\n")
	}
}

// verdictLabel returns the short status label for a verdict.
func verdictLabel(v model.Verdict) string {
	if v.ShouldBlock {
		return "BLOCK " + string(v.MatchedBy)
	}
	if v.Err != "" {
		return "ALLOW (degraded)"
	}
	return "ALLOW"
}
