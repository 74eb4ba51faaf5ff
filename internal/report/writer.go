package report

import (
	"io"

	"github.com/gdprscan/gdprscan/internal/model"
)

// Writer defines the interface for report output.
// Implementations write site analyses in various formats.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files, stdout, or network
// connections with the same API.
type Writer interface {
	// Write outputs one analysis to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(analysis *model.SiteAnalysis) (int, error)

	// WriteAll outputs a batch of analyses, typically one per
	// (site, scenario) combination of a scan run.
	WriteAll(analyses []*model.SiteAnalysis) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because our Writer interface is different
// from io.Writer - we write analyses, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the analysis to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(analysis *model.SiteAnalysis) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(analysis)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteAll outputs the batch to all configured Writers.
func (m *MultiWriter) WriteAll(analyses []*model.SiteAnalysis) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteAll(analyses)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// orderedResults returns the five discovery results in display order,
// privacy policy first.
func orderedResults(analysis *model.SiteAnalysis) []model.DiscoveryResult {
	results := make([]model.DiscoveryResult, 0, 1+len(model.SubTargets()))
	results = append(results, analysis.PrivacyPolicy)
	for _, target := range model.SubTargets() {
		if r, ok := analysis.Targets[target.String()]; ok {
			results = append(results, r)
		} else {
			results = append(results, model.NotFound(target, "not analyzed"))
		}
	}
	return results
}

// targetLabel returns the human-readable name of a target type.
func targetLabel(target model.TargetType) string {
	switch target {
	case model.TargetPrivacyPolicy:
		return "Privacy Policy"
	case model.TargetCookieDeclaration:
		return "Cookie Declaration"
	case model.TargetDataRetention:
		return "Data Retention"
	case model.TargetDataDeletion:
		return "Data Deletion"
	case model.TargetDPOContact:
		return "DPO Contact"
	default:
		return target.String()
	}
}
