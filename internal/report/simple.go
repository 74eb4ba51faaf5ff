package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/gdprscan/gdprscan/internal/model"
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

	// verbose enables additional detail in the output, including the
	// classifier's reasoning per target and the full cookie list.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs one analysis in human-readable format.
func (w *SimpleWriter) Write(analysis *model.SiteAnalysis) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, analysis)
	w.writeTargets(&sb, analysis)
	w.writeCookies(&sb, analysis)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// WriteAll outputs each analysis of the batch in sequence.
func (w *SimpleWriter) WriteAll(analyses []*model.SiteAnalysis) (int, error) {
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
func (w *SimpleWriter) writeHeader(sb *strings.Builder, analysis *model.SiteAnalysis) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                      GDPRSCAN COMPLIANCE REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Site:             %s\n", analysis.SiteURL))
	sb.WriteString(fmt.Sprintf("Consent Scenario: %s\n", analysis.Scenario))
	sb.WriteString(fmt.Sprintf("Analyzed At:      %s\n", analysis.AnalyzedAt.Format("2006-01-02 15:04:05 MST")))

	if analysis.ErrorMessage != "" {
		sb.WriteString(fmt.Sprintf("Status:           ERROR - %s\n", analysis.ErrorMessage))
	} else {
		sb.WriteString(fmt.Sprintf("Status:           Complete (%d/5 targets found)\n", analysis.FoundCount()))
	}

	sb.WriteString("\n")
}

// writeTargets writes the per-target discovery results.
func (w *SimpleWriter) writeTargets(sb *strings.Builder, analysis *model.SiteAnalysis) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("COMPLIANCE TARGETS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, result := range orderedResults(analysis) {
		sb.WriteString(fmt.Sprintf("[%s] %s\n", w.foundIndicator(result), targetLabel(result.TargetType)))
		if result.Found {
			sb.WriteString(fmt.Sprintf("    URL: %s\n", result.URL))
			if result.Embedded {
				sb.WriteString("    Embedded in the page above (no dedicated page)\n")
			}
			if result.Summary != "" {
				sb.WriteString(fmt.Sprintf("    Summary: %s\n", result.Summary))
			}
		} else if result.Reasoning != "" {
			sb.WriteString(fmt.Sprintf("    Reason: %s\n", result.Reasoning))
		}
		if w.verbose && result.Found && result.Reasoning != "" {
			sb.WriteString(fmt.Sprintf("    Reasoning: %s\n", result.Reasoning))
		}
	}
	sb.WriteString("\n")
}

// foundIndicator returns a visual indicator for a discovery result.
func (w *SimpleWriter) foundIndicator(result model.DiscoveryResult) string {
	switch {
	case result.Found && !result.Embedded:
		return "+"
	case result.Found:
		return "~"
	default:
		return "-"
	}
}

// writeCookies writes the cookie statistics section.
func (w *SimpleWriter) writeCookies(sb *strings.Builder, analysis *model.SiteAnalysis) {
	stats := analysis.CookieStats
	if stats.Total == 0 && !w.verbose {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("COOKIES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  Total:       %d\n", stats.Total))
	sb.WriteString(fmt.Sprintf("  Third party: %d\n", stats.ThirdParty))

	if len(stats.Categorized) > 0 {
		sb.WriteString("\n")
		categories := make([]string, 0, len(stats.Categorized))
		for category := range stats.Categorized {
			categories = append(categories, category)
		}
		sort.Strings(categories)
		for _, category := range categories {
			sb.WriteString(fmt.Sprintf("  %s: %s\n", category, strings.Join(stats.Categorized[category], ", ")))
		}
	}

	if w.verbose && len(stats.Cookies) > 0 {
		sb.WriteString("\n")
		for _, c := range stats.Cookies {
			sb.WriteString(fmt.Sprintf("  * %s (domain=%s)\n", c.Name, c.Domain))
		}
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by gdprscan\n")
	sb.WriteString("https://github.com/gdprscan/gdprscan\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
