package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/gdprscan/gdprscan/internal/model"
)

// ScanDB provides SQLite-based storage for site analyses. It manages
// connection pooling and provides methods for CRUD operations.
//
// Design decision: We store the full SiteAnalysis as JSON next to a few
// indexed key columns rather than normalizing targets and cookies into
// their own tables. The analysis is written once and read whole; the key
// columns cover every query the history command needs.
type ScanDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures ScanDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a ScanDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*ScanDB, error) {
	dbPath := filepath.Join(dbDir, "gdprscan.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite uses mode=rw to prevent creating new files and
	// mode=rwc to allow creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; a single connection avoids
	// SQLITE_BUSY under concurrent batch saves.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &ScanDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := sdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return sdb, nil
}

// Close closes the database connection.
func (sdb *ScanDB) Close() error {
	return sdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (sdb *ScanDB) createTables() error {
	schema := `
	-- Analyses store one complete SiteAnalysis per (site, scenario) run as JSON,
	-- with key columns extracted for history queries.
	CREATE TABLE IF NOT EXISTS analyses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		site_url TEXT NOT NULL,
		scenario TEXT NOT NULL,
		analyzed_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		found_count INTEGER NOT NULL,
		cookie_total INTEGER NOT NULL,
		cookie_third_party INTEGER NOT NULL,
		error_message TEXT,
		analysis_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_analyses_site ON analyses(site_url);
	CREATE INDEX IF NOT EXISTS idx_analyses_scenario ON analyses(site_url, scenario);
	CREATE INDEX IF NOT EXISTS idx_analyses_time ON analyses(analyzed_at);
	`

	_, err := sdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveAnalysis stores a completed site analysis. Every save appends a new
// row so that history queries can compare runs over time.
func (sdb *ScanDB) SaveAnalysis(ctx context.Context, analysis *model.SiteAnalysis) error {
	analysisJSON, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("failed to serialize analysis: %w", err)
	}

	query := `
	INSERT INTO analyses (site_url, scenario, analyzed_at, found_count, cookie_total, cookie_third_party, error_message, analysis_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = sdb.db.ExecContext(ctx, query,
		analysis.SiteURL,
		analysis.Scenario,
		analysis.AnalyzedAt.UTC().Format("2006-01-02 15:04:05"),
		analysis.FoundCount(),
		analysis.CookieStats.Total,
		analysis.CookieStats.ThirdParty,
		analysis.ErrorMessage,
		string(analysisJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}

	return nil
}

// GetLatestAnalysis retrieves the most recent analysis for a site and
// scenario. It returns nil without error when none exists.
func (sdb *ScanDB) GetLatestAnalysis(ctx context.Context, siteURL, scenario string) (*model.SiteAnalysis, error) {
	query := `
	SELECT analysis_json FROM analyses
	WHERE site_url = ? AND scenario = ?
	ORDER BY analyzed_at DESC, id DESC
	LIMIT 1
	`

	var analysisJSON string
	err := sdb.db.QueryRowContext(ctx, query, siteURL, scenario).Scan(&analysisJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	var analysis model.SiteAnalysis
	if err := json.Unmarshal([]byte(analysisJSON), &analysis); err != nil {
		return nil, fmt.Errorf("failed to parse analysis: %w", err)
	}

	return &analysis, nil
}

// ListAnalyzedSites returns all site URLs that have stored analyses.
func (sdb *ScanDB) ListAnalyzedSites(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT site_url FROM analyses
	ORDER BY site_url
	`

	rows, err := sdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	var sites []string
	for rows.Next() {
		var site string
		if err := rows.Scan(&site); err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		sites = append(sites, site)
	}

	return sites, rows.Err()
}

// GetAnalysisHistory retrieves all stored analyses for a site, most
// recent first, across all scenarios.
func (sdb *ScanDB) GetAnalysisHistory(ctx context.Context, siteURL string) ([]*model.SiteAnalysis, error) {
	query := `
	SELECT analysis_json FROM analyses
	WHERE site_url = ?
	ORDER BY analyzed_at DESC, id DESC
	`

	rows, err := sdb.db.QueryContext(ctx, query, siteURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis history: %w", err)
	}
	defer rows.Close()

	var analyses []*model.SiteAnalysis
	for rows.Next() {
		var analysisJSON string
		if err := rows.Scan(&analysisJSON); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}

		var analysis model.SiteAnalysis
		if err := json.Unmarshal([]byte(analysisJSON), &analysis); err != nil {
			continue // Skip malformed rows
		}
		analyses = append(analyses, &analysis)
	}

	return analyses, rows.Err()
}

// AnalysisMetadata contains summary information about a stored analysis.
// This is used for displaying history without loading the full analysis.
type AnalysisMetadata struct {
	// ID is the unique identifier of the analysis in the database.
	ID int64

	// SiteURL is the analyzed site.
	SiteURL string

	// Scenario is the consent scenario the analysis ran under.
	Scenario string

	// AnalyzedAt is when the analysis was performed.
	AnalyzedAt time.Time

	// FoundCount is how many of the five targets were located.
	FoundCount int

	// CookieTotal is the number of cookies captured.
	CookieTotal int

	// CookieThirdParty is the number of third party cookies captured.
	CookieThirdParty int
}

// GetHistoryWithMetadata retrieves analysis metadata for a site. This is
// more efficient than GetAnalysisHistory when only metadata is needed.
func (sdb *ScanDB) GetHistoryWithMetadata(ctx context.Context, siteURL string) ([]AnalysisMetadata, error) {
	query := `
	SELECT id, site_url, scenario, analyzed_at, found_count, cookie_total, cookie_third_party
	FROM analyses
	WHERE site_url = ?
	ORDER BY analyzed_at DESC, id DESC
	`

	rows, err := sdb.db.QueryContext(ctx, query, siteURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis history: %w", err)
	}
	defer rows.Close()

	var results []AnalysisMetadata
	for rows.Next() {
		var meta AnalysisMetadata
		var timestamp string

		if err := rows.Scan(&meta.ID, &meta.SiteURL, &meta.Scenario, &timestamp, &meta.FoundCount, &meta.CookieTotal, &meta.CookieThirdParty); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		meta.AnalyzedAt = parseTimestamp(timestamp)
		results = append(results, meta)
	}

	return results, rows.Err()
}

// GetAnalysisByID retrieves an analysis by its database ID. It returns
// nil without error when the ID is unknown.
func (sdb *ScanDB) GetAnalysisByID(ctx context.Context, id int64) (*model.SiteAnalysis, error) {
	query := `
	SELECT analysis_json FROM analyses
	WHERE id = ?
	`

	var analysisJSON string
	err := sdb.db.QueryRowContext(ctx, query, id).Scan(&analysisJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	var analysis model.SiteAnalysis
	if err := json.Unmarshal([]byte(analysisJSON), &analysis); err != nil {
		return nil, fmt.Errorf("failed to parse analysis: %w", err)
	}

	return &analysis, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
