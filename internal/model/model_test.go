package model

import "testing"

// TestTargetTypeString verifies the stable identifiers for all target types.
func TestTargetTypeString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		target TargetType
		want   string
	}{
		{TargetPrivacyPolicy, "privacy_policy"},
		{TargetCookieDeclaration, "cookie_declaration"},
		{TargetDataRetention, "data_retention"},
		{TargetDataDeletion, "data_deletion"},
		{TargetDPOContact, "dpo_contact"},
		{TargetType(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.target.String(); got != tt.want {
			t.Errorf("TargetType(%d).String() = %q, want %q", tt.target, got, tt.want)
		}
	}
}

// TestSubTargets verifies that the privacy policy is not part of the fan-out set.
func TestSubTargets(t *testing.T) {
	t.Parallel()

	subs := SubTargets()
	if len(subs) != 4 {
		t.Fatalf("expected 4 sub-targets, got %d", len(subs))
	}
	for _, target := range subs {
		if target == TargetPrivacyPolicy {
			t.Error("sub-targets must not contain the privacy policy target")
		}
	}
}

// TestSiteAnalysisSetResult tests result placement and found counting.
func TestSiteAnalysisSetResult(t *testing.T) {
	t.Parallel()

	analysis := NewSiteAnalysis("https://example.com", "accept")

	analysis.SetResult(DiscoveryResult{
		TargetType: TargetPrivacyPolicy,
		Found:      true,
		URL:        "https://example.com/privacy",
	})
	analysis.SetResult(DiscoveryResult{
		TargetType: TargetCookieDeclaration,
		Found:      true,
		URL:        "https://example.com/cookies",
	})
	analysis.SetResult(NotFound(TargetDPOContact, "no privacy policy url"))

	if !analysis.PrivacyPolicy.Found {
		t.Error("privacy policy result should be stored in its dedicated field")
	}
	if _, ok := analysis.Targets["privacy_policy"]; ok {
		t.Error("privacy policy result must not appear in the sub-target map")
	}
	if got := analysis.FoundCount(); got != 2 {
		t.Errorf("FoundCount() = %d, want 2", got)
	}
	if r := analysis.Targets["dpo_contact"]; r.Found {
		t.Error("not-found result should report Found=false")
	}
}
