package report

import (
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/gdprscan/gdprscan/internal/model"
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

// Write outputs one analysis in Markdown format.
func (w *MarkdownWriter) Write(analysis *model.SiteAnalysis) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, analysis)
	w.writeTargets(md, analysis)
	w.writeCookies(md, analysis)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteAll outputs each analysis of the batch in sequence.
func (w *MarkdownWriter) WriteAll(analyses []*model.SiteAnalysis) (int, error) {
	var total int
	for _, analysis := range analyses {
		n, err := w.Write(analysis)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// writeHeader writes the report header with analysis information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, analysis *model.SiteAnalysis) {
	md.H1("GDPR Compliance Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Site", "`" + analysis.SiteURL + "`"},
			{"Consent Scenario", analysis.Scenario},
			{"Analyzed At", analysis.AnalyzedAt.Format("2006-01-02 15:04:05 MST")},
			{"Status", w.getStatusText(analysis)},
		},
	})
	md.PlainText("")

	w.writeAlert(md, analysis)
}

// getStatusText returns the status text based on analysis state.
func (w *MarkdownWriter) getStatusText(analysis *model.SiteAnalysis) string {
	if analysis.ErrorMessage != "" {
		return "❌ Error - " + analysis.ErrorMessage
	}
	return "✅ Complete (" + strconv.Itoa(analysis.FoundCount()) + "/5 targets found)"
}

// writeAlert writes an appropriate alert based on what was found.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, analysis *model.SiteAnalysis) {
	found := analysis.FoundCount()
	switch {
	case analysis.ErrorMessage != "":
		md.Cautionf("The analysis did not complete: %s", analysis.ErrorMessage)
	case !analysis.PrivacyPolicy.Found:
		md.Caution("No privacy policy was found. All GDPR disclosure checks failed for this site.")
	case found < 5:
		md.Warningf("%d of 5 compliance targets were not found. See the table below for details.", 5-found)
	default:
		md.Tip("All five compliance targets were located.")
	}
	md.PlainText("")
}

// writeTargets writes the per-target discovery results table.
func (w *MarkdownWriter) writeTargets(md *markdown.Markdown, analysis *model.SiteAnalysis) {
	md.H2("Compliance Targets")
	md.PlainText("")

	results := orderedResults(analysis)
	rows := make([][]string, len(results))
	for i, r := range results {
		status := "❌ Not found"
		if r.Found && r.Embedded {
			status = "🟡 Embedded"
		} else if r.Found {
			status = "✅ Dedicated page"
		}

		location := "-"
		if r.URL != "" {
			location = "`" + r.URL + "`"
		}

		notes := r.Summary
		if !r.Found {
			notes = r.Reasoning
		}

		rows[i] = []string{
			targetLabel(r.TargetType),
			status,
			location,
			truncateString(strings.ReplaceAll(notes, "\n", " "), 80),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Target", "Status", "Location", "Notes"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeCookies writes the cookie statistics section.
func (w *MarkdownWriter) writeCookies(md *markdown.Markdown, analysis *model.SiteAnalysis) {
	stats := analysis.CookieStats

	md.H2("Cookies")
	md.PlainText("")

	if stats.Total == 0 {
		md.PlainText("No cookies were captured under this scenario.")
		md.PlainText("")
		return
	}

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Total", strconv.Itoa(stats.Total)},
			{"First party", strconv.Itoa(stats.Total - stats.ThirdParty)},
			{"Third party", strconv.Itoa(stats.ThirdParty)},
		},
	})
	md.PlainText("")

	if len(stats.Categorized) > 0 {
		w.writeCategoryChart(md, stats)

		categories := make([]string, 0, len(stats.Categorized))
		for category := range stats.Categorized {
			categories = append(categories, category)
		}
		sort.Strings(categories)

		rows := make([][]string, len(categories))
		for i, category := range categories {
			rows[i] = []string{category, strings.Join(stats.Categorized[category], ", ")}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Category", "Cookies"},
			Rows:   rows,
		})
		md.PlainText("")
	}
}

// writeCategoryChart writes a mermaid pie chart of the cookie categories.
func (w *MarkdownWriter) writeCategoryChart(md *markdown.Markdown, stats model.CookieStats) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Cookie Category Distribution"),
		piechart.WithShowData(true),
	)

	categories := make([]string, 0, len(stats.Categorized))
	for category := range stats.Categorized {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	for _, category := range categories {
		if n := len(stats.Categorized[category]); n > 0 {
			chart.LabelAndIntValue(category, uint64(n))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [gdprscan](https://github.com/gdprscan/gdprscan)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
