package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gdprscan/gdprscan/internal/config"
	"github.com/gdprscan/gdprscan/internal/database"
	"github.com/gdprscan/gdprscan/internal/model"
)

// Compliance direction labels for the comparison summary.
const (
	complianceImproved  = "improved"
	complianceWorsened  = "worsened"
	complianceUnchanged = "unchanged"
)

// NewHistoryCmd creates the history command.
// This command inspects analysis results stored in the database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [site-url]",
		Short: "Inspect and compare stored analysis results",
		Long: `History lists stored analysis results and compares runs over time.

Analyses are saved automatically by 'gdprscan scan'. This command shows:
- All analyzed sites in the database
- The analysis history of one site
- What changed between the two most recent analyses of a site

Examples:
  # List all analyzed sites
  gdprscan history --list-sites

  # List analysis history for a site
  gdprscan history https://example.com

  # Compare the two most recent analyses
  gdprscan history --compare https://example.com

  # Compare the latest analysis with a specific earlier one
  gdprscan history --compare --with-id 5 https://example.com

  # Output the comparison as JSON
  gdprscan history --compare --json https://example.com`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list-sites", "L", false,
		"List all analyzed sites in the database")
	cmd.Flags().BoolP("compare", "C", false,
		"Compare the two most recent analyses of the site")
	cmd.Flags().Int64P("with-id", "i", 0,
		"Compare the latest analysis with a specific analysis by ID")
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	listSites, err := cmd.Flags().GetBool("list-sites")
	if err != nil {
		return err
	}

	// Validate arguments before opening the database so a bad invocation
	// never takes the database lock.
	var siteURL string
	if !listSites {
		if len(args) == 0 {
			return errors.New("site URL is required (use --list-sites to see analyzed sites)")
		}
		siteURL = args[0]
	}

	db, err := database.Open(config.XDGDataDir(), database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	if listSites {
		return listAnalyzedSites(ctx, db)
	}

	compare, err := cmd.Flags().GetBool("compare")
	if err != nil {
		return err
	}
	if !compare {
		return listAnalysisHistory(ctx, db, siteURL)
	}

	withID, err := cmd.Flags().GetInt64("with-id")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	return runComparison(ctx, db, siteURL, withID, jsonOutput)
}

// listAnalyzedSites lists all sites with analysis records in the database.
func listAnalyzedSites(ctx context.Context, db *database.ScanDB) error {
	sites, err := db.ListAnalyzedSites(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sites: %w", err)
	}

	if len(sites) == 0 {
		fmt.Println("No analyzed sites found in the database.")
		fmt.Println("\nUse 'gdprscan scan <site-url>' to analyze a site.")
		return nil
	}

	fmt.Printf("Analyzed sites (%d):\n\n", len(sites))
	for _, site := range sites {
		fmt.Printf("  • %s\n", site)
	}
	fmt.Println("\nUse 'gdprscan history <site-url>' to see the analysis history for a site.")

	return nil
}

// listAnalysisHistory lists all analysis records for a specific site.
func listAnalysisHistory(ctx context.Context, db *database.ScanDB, siteURL string) error {
	records, err := db.GetHistoryWithMetadata(ctx, siteURL)
	if err != nil {
		return fmt.Errorf("failed to get analysis history: %w", err)
	}

	if len(records) == 0 {
		fmt.Printf("No analysis history found for %s\n", siteURL)
		fmt.Println("\nUse 'gdprscan scan' to analyze this site.")
		return nil
	}

	fmt.Printf("Analysis history for %s (%d analyses):\n\n", siteURL, len(records))
	fmt.Printf("  %-6s  %-20s  %-8s  %-7s  %s\n", "ID", "Date", "Scenario", "Found", "Cookies")
	fmt.Println("  " + strings.Repeat("-", 60))

	for _, meta := range records {
		fmt.Printf("  %-6d  %-20s  %-8s  %d/5      %d (%d third-party)\n",
			meta.ID,
			meta.AnalyzedAt.Format("2006-01-02 15:04:05"),
			meta.Scenario,
			meta.FoundCount,
			meta.CookieTotal,
			meta.CookieThirdParty,
		)
	}

	fmt.Println("\nUse 'gdprscan history --compare <site-url>' to compare the latest two analyses.")

	return nil
}

// ComparisonResult holds the result of comparing two analyses of one site.
type ComparisonResult struct {
	// SiteURL is the analyzed site.
	SiteURL string `json:"site_url"`

	// Scenario is the consent scenario of the current analysis.
	Scenario string `json:"scenario"`

	// Previous summarizes the earlier analysis.
	Previous AnalysisSummary `json:"previous"`

	// Current summarizes the latest analysis.
	Current AnalysisSummary `json:"current"`

	// NewlyFound lists target types found now but not before.
	NewlyFound []string `json:"newly_found,omitempty"`

	// NoLongerFound lists target types found before but missing now.
	NoLongerFound []string `json:"no_longer_found,omitempty"`

	// CookieDelta is the change in total cookie count.
	CookieDelta int `json:"cookie_delta"`

	// ThirdPartyDelta is the change in third-party cookie count.
	ThirdPartyDelta int `json:"third_party_delta"`

	// Direction is "improved", "worsened", or "unchanged".
	Direction string `json:"direction"`
}

// AnalysisSummary is the per-analysis metadata shown in a comparison.
type AnalysisSummary struct {
	// AnalyzedAt is when the analysis ran.
	AnalyzedAt string `json:"analyzed_at"`

	// FoundCount is how many of the five targets were located.
	FoundCount int `json:"found_count"`

	// CookieTotal is the number of cookies captured.
	CookieTotal int `json:"cookie_total"`

	// CookieThirdParty is the number of third-party cookies captured.
	CookieThirdParty int `json:"cookie_third_party"`
}

// runComparison compares the latest analysis of a site with an earlier one.
func runComparison(ctx context.Context, db *database.ScanDB, siteURL string, withID int64, jsonOutput bool) error {
	history, err := db.GetAnalysisHistory(ctx, siteURL)
	if err != nil {
		return fmt.Errorf("failed to get analysis history: %w", err)
	}
	if len(history) == 0 {
		return fmt.Errorf("no analysis history found for %s", siteURL)
	}

	current := history[0]

	var previous *model.SiteAnalysis
	if withID > 0 {
		previous, err = db.GetAnalysisByID(ctx, withID)
		if err != nil {
			return fmt.Errorf("failed to get analysis with ID %d: %w", withID, err)
		}
		if previous == nil {
			return fmt.Errorf("analysis with ID %d not found", withID)
		}
		if previous.SiteURL != siteURL {
			return fmt.Errorf("analysis ID %d belongs to %s, not %s", withID, previous.SiteURL, siteURL)
		}
	} else {
		// Default: the most recent earlier analysis under the same scenario,
		// so accept and reject runs are never compared against each other.
		for _, a := range history[1:] {
			if a.Scenario == current.Scenario {
				previous = a
				break
			}
		}
		if previous == nil {
			return fmt.Errorf("at least 2 analyses under the %q scenario are required for comparison", current.Scenario)
		}
	}

	comparison := compareAnalyses(previous, current)

	if jsonOutput {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(comparison)
	}
	return outputComparisonText(comparison)
}

// compareAnalyses builds the comparison between two analyses.
func compareAnalyses(previous, current *model.SiteAnalysis) *ComparisonResult {
	result := &ComparisonResult{
		SiteURL:  current.SiteURL,
		Scenario: current.Scenario,
		Previous: summarize(previous),
		Current:  summarize(current),
	}

	prevFound := foundTargets(previous)
	currFound := foundTargets(current)

	for _, target := range allTargets() {
		name := target.String()
		switch {
		case currFound[name] && !prevFound[name]:
			result.NewlyFound = append(result.NewlyFound, name)
		case !currFound[name] && prevFound[name]:
			result.NoLongerFound = append(result.NoLongerFound, name)
		}
	}

	result.CookieDelta = current.CookieStats.Total - previous.CookieStats.Total
	result.ThirdPartyDelta = current.CookieStats.ThirdParty - previous.CookieStats.ThirdParty

	switch {
	case len(result.NewlyFound) > len(result.NoLongerFound):
		result.Direction = complianceImproved
	case len(result.NoLongerFound) > len(result.NewlyFound):
		result.Direction = complianceWorsened
	default:
		result.Direction = complianceUnchanged
	}

	return result
}

// summarize extracts the comparison metadata from an analysis.
func summarize(a *model.SiteAnalysis) AnalysisSummary {
	return AnalysisSummary{
		AnalyzedAt:       a.AnalyzedAt.Format("2006-01-02 15:04:05"),
		FoundCount:       a.FoundCount(),
		CookieTotal:      a.CookieStats.Total,
		CookieThirdParty: a.CookieStats.ThirdParty,
	}
}

// foundTargets returns the set of target type names found in an analysis.
func foundTargets(a *model.SiteAnalysis) map[string]bool {
	found := make(map[string]bool)
	if a.PrivacyPolicy.Found {
		found[model.TargetPrivacyPolicy.String()] = true
	}
	for name, result := range a.Targets {
		if result.Found {
			found[name] = true
		}
	}
	return found
}

// allTargets lists every target type in report order.
func allTargets() []model.TargetType {
	return append([]model.TargetType{model.TargetPrivacyPolicy}, model.SubTargets()...)
}

// outputComparisonText prints a human-readable comparison.
func outputComparisonText(c *ComparisonResult) error {
	fmt.Printf("Comparison for %s (%s scenario)\n\n", c.SiteURL, c.Scenario)
	fmt.Printf("  Previous: %s  %d/5 targets, %d cookies (%d third-party)\n",
		c.Previous.AnalyzedAt, c.Previous.FoundCount, c.Previous.CookieTotal, c.Previous.CookieThirdParty)
	fmt.Printf("  Current:  %s  %d/5 targets, %d cookies (%d third-party)\n\n",
		c.Current.AnalyzedAt, c.Current.FoundCount, c.Current.CookieTotal, c.Current.CookieThirdParty)

	if len(c.NewlyFound) > 0 {
		fmt.Printf("  Newly found: %s\n", strings.Join(c.NewlyFound, ", "))
	}
	if len(c.NoLongerFound) > 0 {
		fmt.Printf("  No longer found: %s\n", strings.Join(c.NoLongerFound, ", "))
	}
	if c.CookieDelta != 0 {
		fmt.Printf("  Cookie count change: %+d (%+d third-party)\n", c.CookieDelta, c.ThirdPartyDelta)
	}

	fmt.Printf("\n  Overall: compliance %s\n", c.Direction)
	return nil
}
