package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gdprscan/gdprscan/internal/browser"
	"github.com/gdprscan/gdprscan/internal/classifier"
	"github.com/gdprscan/gdprscan/internal/config"
	"github.com/gdprscan/gdprscan/internal/cookies"
	"github.com/gdprscan/gdprscan/internal/database"
	"github.com/gdprscan/gdprscan/internal/keyword"
	"github.com/gdprscan/gdprscan/internal/log"
	"github.com/gdprscan/gdprscan/internal/model"
	"github.com/gdprscan/gdprscan/internal/pipeline"
	"github.com/gdprscan/gdprscan/internal/report"
	"github.com/gdprscan/gdprscan/internal/sitemap"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [site-url...]",
		Short: "Analyze websites for GDPR compliance pages",
		Long: `Scan analyzes one or more websites for GDPR compliance pages.

For every site and consent scenario it:
- Loads the entry page in a headless browser and handles the consent banner
- Records the cookies set under that scenario
- Locates the privacy policy, cookie declaration, data retention, data
  deletion, and DPO contact pages

Examples:
  # Analyze a single site under both consent scenarios
  gdprscan scan https://example.com

  # Analyze several sites, accept scenario only
  gdprscan scan --scenario accept https://example.com https://example.org

  # Analyze every site in a CSV list
  gdprscan scan --list sites.csv

  # Plain HTTP mode without a browser (no consent handling, no cookies)
  gdprscan scan --no-browser https://example.com

  # Output a Markdown report to a file
  gdprscan scan --markdown -o report.md https://example.com

Configuration file (.gdprscan) example:
  sites:
    example.com:
      consentLabels:
        - "alle akzeptieren"
      entryPath: "/en"`,
		Args: cobra.ArbitraryArgs,
		RunE: runScanCmd,
	}

	// Classifier flags
	cmd.Flags().StringP("ollama-url", "u", config.DefaultOllamaURL,
		"Base URL of the Ollama server used for classification")
	cmd.Flags().StringP("model", "M", config.DefaultModel,
		"Ollama model name")

	// Analysis behavior flags
	cmd.Flags().StringSliceP("scenario", "s", config.DefaultScenarios(),
		"Consent scenarios to run (accept, reject)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Navigation timeout per page load")
	cmd.Flags().Bool("no-browser", false,
		"Use plain HTTP fetching instead of a headless browser")
	cmd.Flags().Bool("short-circuit", false,
		"Stop a target search as soon as the content is found embedded on the seed page")

	// Batch flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent site analyses")
	cmd.Flags().StringP("list", "l", "",
		"CSV file with one site URL per row")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .gdprscan in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging
	cfg.Verbose = getVerboseFlag(cmd)
	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runScan(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.OllamaURL, err = cmd.Flags().GetString("ollama-url")
	if err != nil {
		return nil, err
	}

	cfg.Model, err = cmd.Flags().GetString("model")
	if err != nil {
		return nil, err
	}

	cfg.Scenarios, err = cmd.Flags().GetStringSlice("scenario")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.NoBrowser, err = cmd.Flags().GetBool("no-browser")
	if err != nil {
		return nil, err
	}

	cfg.ShortCircuit, err = cmd.Flags().GetBool("short-circuit")
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load site-specific configurations from config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	// Always save to database using XDG data directory
	cfg.SaveToDB = true
	cfg.DBDir = config.XDGDataDir()

	// Positional arguments plus the optional site list file
	cfg.Targets = args

	listPath, err := cmd.Flags().GetString("list")
	if err != nil {
		return nil, err
	}
	if listPath != "" {
		sites, err := config.LoadSiteList(listPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load site list %s: %w", listPath, err)
		}
		cfg.Targets = append(cfg.Targets, sites...)
	}

	return cfg, nil
}

// runScan executes the analysis.
func runScan(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting analysis",
		"targets", cfg.Targets,
		"scenarios", cfg.Scenarios,
		"noBrowser", cfg.NoBrowser,
		"batchSize", cfg.BatchSize,
	)

	// Open database connection if saving is enabled
	var db *database.ScanDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	// Resolve per-site entry URLs and drop skipped sites
	sites := make([]string, 0, len(cfg.Targets))
	for _, target := range cfg.Targets {
		siteConfig := getSiteConfig(cfg, target)
		if siteConfig.Skip {
			logger.Info("site skipped by configuration", "site", target)
			continue
		}
		sites = append(sites, applyEntryPath(target, siteConfig.EntryPath))
	}
	if len(sites) == 0 {
		return fmt.Errorf("all %d configured sites are skipped", len(cfg.Targets))
	}

	b := newBrowser(ctx, cfg)
	defer b.Close()

	clf, err := classifier.NewOllama(cfg.OllamaURL, cfg.Model,
		classifier.WithCallTimeout(cfg.Timeout),
		classifier.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("failed to create classifier: %w", err)
	}

	jobs := pipeline.ExpandJobs(sites, cfg.Scenarios)

	// Use batch processor for parallel analysis if multiple jobs
	if len(jobs) > 1 && cfg.BatchSize > 1 {
		return runBatchScan(ctx, cfg, b, clf, db, jobs, logger)
	}

	return runSequentialScan(ctx, cfg, b, clf, db, jobs, logger)
}

// newBrowser creates the configured browser implementation.
func newBrowser(ctx context.Context, cfg *config.Config) browser.Browser {
	if cfg.NoBrowser {
		return browser.NewFetcher(
			browser.WithUserAgent(cfg.UserAgent),
			browser.WithMaxBodySize(cfg.MaxBodySize),
			browser.WithTimeout(cfg.Timeout),
		)
	}
	return browser.NewChrome(ctx,
		browser.WithNavigationTimeout(cfg.Timeout),
	)
}

// runSequentialScan analyzes jobs one at a time.
func runSequentialScan(ctx context.Context, cfg *config.Config, b browser.Browser, clf *classifier.Ollama, db *database.ScanDB, jobs []pipeline.Job, logger *slog.Logger) error {
	for _, job := range jobs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		p := createPipelineForJob(b, clf, logger, cfg, job)
		analysis := model.NewSiteAnalysis(job.SiteURL, job.Scenario)

		fmt.Printf("Analyzing %s (%s)...\n", job.SiteURL, job.Scenario)
		startTime := time.Now()

		if err := p.Execute(ctx, analysis); err != nil {
			logger.Error("analysis failed", "site", job.SiteURL, "error", err)
			fmt.Fprintf(os.Stderr, "Analysis error for %s: %v\n", job.SiteURL, err)
			continue
		}

		elapsed := time.Since(startTime)
		fmt.Printf("Analysis completed in %s (%d/5 targets found)\n\n",
			elapsed.Round(time.Millisecond), analysis.FoundCount())

		if err := outputReport(cfg, analysis); err != nil {
			logger.Error("report failed", "site", job.SiteURL, "error", err)
		}

		if err := saveAnalysis(ctx, db, analysis, logger); err != nil {
			logger.Error("failed to save analysis", "site", job.SiteURL, "error", err)
		}
	}

	return nil
}

// runBatchScan analyzes multiple jobs concurrently using BatchProcessor.
func runBatchScan(ctx context.Context, cfg *config.Config, b browser.Browser, clf *classifier.Ollama, db *database.ScanDB, jobs []pipeline.Job, logger *slog.Logger) error {
	fmt.Printf("Starting batch analysis of %d jobs (concurrency: %d)...\n\n",
		len(jobs), cfg.BatchSize)

	startTime := time.Now()

	bp := pipeline.NewBatchProcessor(
		func(job pipeline.Job) *pipeline.Pipeline {
			return createPipelineForJob(b, clf, logger, cfg, job)
		},
		pipeline.WithBatchConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	// Process with callback for streaming output
	var mu sync.Mutex
	err := bp.ProcessBatchWithCallback(ctx, jobs, func(analysis *model.SiteAnalysis, index int) {
		mu.Lock()
		defer mu.Unlock()

		fmt.Printf("[%d/%d] Analysis completed: %s (%s), %d/5 targets found\n",
			index+1, len(jobs), analysis.SiteURL, analysis.Scenario, analysis.FoundCount())

		if err := outputReport(cfg, analysis); err != nil {
			logger.Error("report failed", "site", analysis.SiteURL, "error", err)
		}

		if err := saveAnalysis(ctx, db, analysis, logger); err != nil {
			logger.Error("failed to save analysis", "site", analysis.SiteURL, "error", err)
		}
	})

	elapsed := time.Since(startTime)
	fmt.Printf("\nBatch analysis completed in %s\n", elapsed.Round(time.Millisecond))

	return err
}

// getSiteConfig returns the site-specific configuration for a target URL.
// Falls back to defaults if no site-specific config exists.
func getSiteConfig(cfg *config.Config, target string) config.SiteConfig {
	if cfg.SiteConfigs == nil {
		return config.SiteConfig{}
	}
	return cfg.SiteConfigs.GetSiteConfig(hostOf(target))
}

// hostOf extracts the host from a site URL for config lookups.
func hostOf(siteURL string) string {
	u, err := url.Parse(siteURL)
	if err != nil || u.Host == "" {
		return strings.TrimPrefix(strings.TrimPrefix(siteURL, "https://"), "http://")
	}
	return u.Host
}

// applyEntryPath rewrites the site URL to start at the configured entry
// path. An empty path leaves the URL untouched.
func applyEntryPath(siteURL, entryPath string) string {
	if entryPath == "" {
		return siteURL
	}
	u, err := url.Parse(siteURL)
	if err != nil {
		return siteURL
	}
	u.Path = entryPath
	return u.String()
}

// createPipelineForJob creates a pipeline configured for one (site, scenario) job.
func createPipelineForJob(b browser.Browser, clf *classifier.Ollama, logger *slog.Logger, cfg *config.Config, job pipeline.Job) *pipeline.Pipeline {
	siteConfig := getSiteConfig(cfg, job.SiteURL)

	pipelineOpts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithContinueOnError(false),
	}

	configOpts := []pipeline.DefaultPipelineOption{
		pipeline.WithPipelineShortCircuit(cfg.ShortCircuit),
		pipeline.WithPipelineSkipConsent(cfg.NoBrowser),
		pipeline.WithPipelineSitemap(sitemap.NewClient(
			sitemap.WithUserAgent(cfg.UserAgent),
			sitemap.WithLogger(logger),
		)),
	}

	if len(siteConfig.ConsentLabels) > 0 {
		configOpts = append(configOpts, pipeline.WithPipelineConsentLabels(siteConfig.ConsentLabels))
	}
	if profiles := buildProfiles(siteConfig.Profiles); profiles != nil {
		configOpts = append(configOpts, pipeline.WithPipelineProfiles(profiles))
	}

	analyzer := cookies.NewAnalyzer(
		cookies.WithCategorizer(clf),
		cookies.WithLogger(logger),
	)

	return pipeline.DefaultPipeline(b, clf, analyzer, pipelineOpts, configOpts...)
}

// buildProfiles merges per-site keyword profile overrides over the built-in
// profiles. A nil return means no overrides apply.
func buildProfiles(overrides map[string][]string) map[model.TargetType]keyword.Profile {
	if len(overrides) == 0 {
		return nil
	}

	profiles := keyword.DefaultProfiles()
	for name, phrases := range overrides {
		target, ok := model.ParseTargetType(name)
		if !ok {
			slog.Warn("unknown target type in profile override", "target", name)
			continue
		}
		profiles[target] = keyword.Profile(phrases)
	}
	return profiles
}

// outputReport outputs the analysis in the requested format.
func outputReport(cfg *config.Config, analysis *model.SiteAnalysis) error {
	var output *os.File
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Append so multi-site runs collect into one file.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(output)
	default:
		w = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	_, err := w.Write(analysis)
	return err
}

// saveAnalysis saves the analysis to the database if enabled.
// If db is nil, this function is a no-op.
func saveAnalysis(ctx context.Context, db *database.ScanDB, analysis *model.SiteAnalysis, logger *slog.Logger) error {
	if db == nil {
		return nil
	}

	if err := db.SaveAnalysis(ctx, analysis); err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}

	logger.Info("analysis saved to database",
		"site", analysis.SiteURL,
		"scenario", analysis.Scenario,
	)
	return nil
}
