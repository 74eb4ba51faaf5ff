package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gdprscan/gdprscan/internal/model"
)

// Job is one unit of batch work: a site analyzed under one consent
// scenario. A site listed under both scenarios produces two jobs.
type Job struct {
	// SiteURL is the site's entry page URL.
	SiteURL string

	// Scenario is the consent scenario applied, "accept" or "reject".
	Scenario string
}

// BatchProcessor handles concurrent analysis of multiple sites.
// It uses errgroup to manage goroutines and respect concurrency limits.
//
// Design decision: We use a separate BatchProcessor rather than adding batch
// functionality to Pipeline because:
// 1. It keeps the Pipeline focused on single-site execution
// 2. It allows different batch strategies (e.g., rate limiting, retries)
// 3. It provides cleaner separation of concerns
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each job.
	// We use a factory to ensure each job gets a fresh pipeline instance.
	pipelineFactory func(job Job) *Pipeline

	// concurrency is the maximum number of sites analyzed at once.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// results stores completed analyses.
	// Access is synchronized via mutex.
	results []*model.SiteAnalysis
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithBatchConcurrency sets the maximum number of concurrent analyses.
// Default is 4 if not specified.
func WithBatchConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
//
// The pipelineFactory function is called for each job to create a fresh
// pipeline instance. It receives the job so site-specific configuration,
// such as custom consent labels, can be applied per pipeline.
func NewBatchProcessor(pipelineFactory func(job Job) *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     4,
		results:         make([]*model.SiteAnalysis, 0),
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch analyzes multiple jobs concurrently.
// It respects the configured concurrency limit and context cancellation.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it's simpler and errgroup handles the concurrency correctly.
// Each job gets its own goroutine, but only 'concurrency' goroutines
// run simultaneously.
//
// Returns all analyses collected, in job order, even for sites that
// failed. The error return indicates whether the batch was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, jobs []Job) ([]*model.SiteAnalysis, error) {
	bp.logger.Info("starting batch processing",
		"total_jobs", len(jobs),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	// Pre-allocate results slice to maintain order
	bp.results = make([]*model.SiteAnalysis, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, job := range jobs {
		g.Go(func() error {
			// Check for cancellation before starting
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("analyzing site",
				"site", job.SiteURL,
				"scenario", job.Scenario,
				"index", i+1,
				"total", len(jobs),
			)

			analysis := model.NewSiteAnalysis(job.SiteURL, job.Scenario)

			pipeline := bp.pipelineFactory(job)
			err := pipeline.Execute(ctx, analysis)

			// Store result regardless of error
			// The analysis carries the error message if the site failed
			bp.mu.Lock()
			bp.results[i] = analysis
			bp.mu.Unlock()

			if err != nil {
				bp.logger.Warn("analysis failed",
					"site", job.SiteURL,
					"scenario", job.Scenario,
					"error", err,
				)
				// Don't return error to errgroup - we want to continue other sites
				// The error is recorded on the analysis
				return nil
			}

			bp.logger.Info("analysis completed",
				"site", job.SiteURL,
				"scenario", job.Scenario,
				"found", analysis.FoundCount(),
			)

			return nil
		})
	}

	// Wait for all analyses to complete
	err := g.Wait()

	elapsed := time.Since(startTime)
	bp.logger.Info("batch processing complete",
		"total_jobs", len(jobs),
		"elapsed", elapsed,
	)

	return bp.results, err
}

// ProcessBatchWithCallback analyzes multiple jobs and calls a callback
// for each completed analysis. This is useful for streaming results.
//
// The callback receives the analysis and the index of the job in the
// original slice. The callback is called from the goroutine that completed
// the analysis, so it should be thread-safe if it accesses shared state.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	jobs []Job,
	callback func(analysis *model.SiteAnalysis, index int),
) error {
	bp.logger.Info("starting batch processing with callback",
		"total_jobs", len(jobs),
		"concurrency", bp.concurrency,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, job := range jobs {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			analysis := model.NewSiteAnalysis(job.SiteURL, job.Scenario)
			pipeline := bp.pipelineFactory(job)
			_ = pipeline.Execute(ctx, analysis) //nolint:errcheck // Error is stored in analysis

			// Call the callback with the result
			callback(analysis, i)

			return nil
		})
	}

	return g.Wait()
}

// ExpandJobs builds the job list for a set of sites and scenarios,
// in site-major order so one site's scenarios stay adjacent in reports.
func ExpandJobs(sites, scenarios []string) []Job {
	jobs := make([]Job, 0, len(sites)*len(scenarios))
	for _, site := range sites {
		for _, scenario := range scenarios {
			jobs = append(jobs, Job{SiteURL: site, Scenario: scenario})
		}
	}
	return jobs
}
