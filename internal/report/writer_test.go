package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gdprscan/gdprscan/internal/model"
)

func sampleAnalysis() *model.SiteAnalysis {
	analysis := model.NewSiteAnalysis("https://example.com", "accept")
	analysis.AnalyzedAt = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	analysis.SetResult(model.DiscoveryResult{
		TargetType: model.TargetPrivacyPolicy,
		Found:      true,
		URL:        "https://example.com/privacy",
		Summary:    "full privacy policy",
		Reasoning:  "dedicated page validated",
	})
	analysis.SetResult(model.DiscoveryResult{
		TargetType: model.TargetCookieDeclaration,
		Found:      true,
		URL:        "https://example.com/privacy",
		Embedded:   true,
		Summary:    "cookie section inside the policy",
	})
	analysis.SetResult(model.NotFound(model.TargetDataRetention, "no matching links"))
	analysis.SetResult(model.NotFound(model.TargetDataDeletion, "candidate page failed content validation"))
	analysis.SetResult(model.NotFound(model.TargetDPOContact, "no matching links"))
	analysis.CookieStats = model.CookieStats{
		Total:      3,
		ThirdParty: 1,
		Categorized: map[string][]string{
			"necessary": {"session"},
			"analytics": {"_ga", "_gid"},
		},
		Cookies: []model.Cookie{
			{Name: "session", Domain: "example.com"},
			{Name: "_ga", Domain: ".google-analytics.com"},
			{Name: "_gid", Domain: ".google-analytics.com"},
		},
	}
	return analysis
}

func TestSimpleWriter_Write(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	n, err := NewSimpleWriter(&buf).Write(sampleAnalysis())
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if n != buf.Len() {
		t.Errorf("Write() = %d bytes, buffer holds %d", n, buf.Len())
	}

	out := buf.String()
	for _, want := range []string{
		"GDPRSCAN COMPLIANCE REPORT",
		"Site:             https://example.com",
		"Consent Scenario: accept",
		"(2/5 targets found)",
		"[+] Privacy Policy",
		"[~] Cookie Declaration",
		"[-] Data Retention",
		"Reason: no matching links",
		"Total:       3",
		"Third party: 1",
		"analytics: _ga, _gid",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestSimpleWriter_Verbose(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(sampleAnalysis()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Reasoning: dedicated page validated") {
		t.Errorf("verbose output missing reasoning: %s", out)
	}
	if !strings.Contains(out, "* _ga (domain=.google-analytics.com)") {
		t.Errorf("verbose output missing cookie list: %s", out)
	}
}

func TestSimpleWriter_ErrorStatus(t *testing.T) {
	t.Parallel()

	analysis := model.NewSiteAnalysis("https://dead.example.com", "reject")
	analysis.ErrorMessage = "entry page unreachable"

	var buf bytes.Buffer
	if _, err := NewSimpleWriter(&buf).Write(analysis); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !strings.Contains(buf.String(), "ERROR - entry page unreachable") {
		t.Errorf("output missing error status: %s", buf.String())
	}
}

func TestJSONWriter_Write(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewJSONWriter(&buf).Write(sampleAnalysis()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	var decoded model.SiteAnalysis
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.SiteURL != "https://example.com" || !decoded.PrivacyPolicy.Found {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestJSONWriter_PrettyPrint(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(sampleAnalysis()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !strings.Contains(buf.String(), "\n  \"site_url\"") {
		t.Errorf("output not indented: %s", buf.String())
	}
}

func TestFullJSONWriter_WriteAll(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewFullJSONWriter(&buf, "1.2.3")
	if _, err := w.WriteAll([]*model.SiteAnalysis{sampleAnalysis(), sampleAnalysis()}); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}

	var decoded JSONReport
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Version != "1.2.3" {
		t.Errorf("Version = %q, want 1.2.3", decoded.Version)
	}
	if len(decoded.Analyses) != 2 {
		t.Errorf("Analyses = %d entries, want 2", len(decoded.Analyses))
	}
}

func TestMarkdownWriter_Write(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).Write(sampleAnalysis()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"# GDPR Compliance Report",
		"`https://example.com`",
		"## Compliance Targets",
		"Privacy Policy",
		"✅ Dedicated page",
		"🟡 Embedded",
		"❌ Not found",
		"## Cookies",
		"Third party",
		"pie",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestMarkdownWriter_NoPolicyAlert(t *testing.T) {
	t.Parallel()

	analysis := model.NewSiteAnalysis("https://example.com", "accept")
	analysis.SetResult(model.NotFound(model.TargetPrivacyPolicy, "nothing found"))

	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).Write(analysis); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !strings.Contains(buf.String(), "No privacy policy was found") {
		t.Errorf("output missing caution alert: %s", buf.String())
	}
}

type failingWriter struct {
	err error
}

func (f *failingWriter) Write(*model.SiteAnalysis) (int, error) {
	return 0, f.err
}

func (f *failingWriter) WriteAll([]*model.SiteAnalysis) (int, error) {
	return 0, f.err
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var a, b bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(&a), NewJSONWriter(&b))
		if _, err := mw.Write(sampleAnalysis()); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if a.Len() == 0 || b.Len() == 0 {
			t.Error("one of the writers received no output")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		wantErr := errors.New("disk full")
		var after bytes.Buffer
		mw := NewMultiWriter(&failingWriter{err: wantErr}, NewSimpleWriter(&after))
		if _, err := mw.Write(sampleAnalysis()); !errors.Is(err, wantErr) {
			t.Errorf("Write() error = %v, want %v", err, wantErr)
		}
		if after.Len() != 0 {
			t.Error("writer after the failing one still received output")
		}
	})
}

func TestOrderedResults_FillsMissingTargets(t *testing.T) {
	t.Parallel()

	analysis := model.NewSiteAnalysis("https://example.com", "accept")
	results := orderedResults(analysis)

	if len(results) != 5 {
		t.Fatalf("orderedResults() = %d entries, want 5", len(results))
	}
	if results[0].TargetType != model.TargetPrivacyPolicy {
		t.Errorf("results[0] = %v, want privacy policy first", results[0].TargetType)
	}
	for _, r := range results[1:] {
		if r.Found {
			t.Errorf("missing target %v reported as found", r.TargetType)
		}
	}
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input  string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly-10", 10, "exactly-10"},
		{"this is a longer string", 10, "this is..."},
		{"abc", 2, "ab"},
	}
	for _, tt := range tests {
		if got := truncateString(tt.input, tt.maxLen); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
		}
	}
}
