package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"

	"textveil/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.ScanReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeResults(md, report)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with session information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.ScanReport) {
	md.H1("Textveil Scan Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Target", "`" + report.Target + "`"},
			{"Session", report.SessionID},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Elapsed", report.Elapsed.String()},
		},
	})
	md.PlainText("")
}

// writeSummary writes the verdict summary table.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.ScanReport) {
	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Fragments scanned", strconv.Itoa(report.FragmentsScanned)},
			{"Deduplicated", strconv.Itoa(report.FragmentsDeduplicated)},
			{"Blocked", strconv.Itoa(report.Blocked)},
			{"Blocked by keyword", strconv.Itoa(report.BlockedByKeyword)},
			{"Blocked by script", strconv.Itoa(report.BlockedByScript)},
			{"Blocked by AI", strconv.Itoa(report.BlockedByAI)},
			{"Allowed", strconv.Itoa(report.Allowed)},
			{"Errored", strconv.Itoa(report.Errored)},
		},
	})
	md.PlainText("")
}

// writeResults writes the per-fragment results table. Only blocked and
// errored fragments are listed; clean allows add nothing a reader needs.
func (w *MarkdownWriter) writeResults(md *markdown.Markdown, report *model.ScanReport) {
	rows := make([][]string, 0, len(report.Results))
	for _, r := range report.Results {
		if !r.Verdict.ShouldBlock && r.Verdict.Err == "" {
			continue
		}
		detail := r.Verdict.MatchedKeyword
		if r.Verdict.Err != "" {
			detail = r.Verdict.Err
		}
		rows = append(rows, []string{
			"`" + r.ContentHash + "`",
			verdictLabel(r.Verdict),
			detail,
			r.Excerpt,
		})
	}
	if len(rows) == 0 {
		return
	}

	md.H2("Fragments")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Content Hash", "Verdict", "Detail", "Excerpt"},
		Rows:   rows,
	})
	md.PlainText("")
}
