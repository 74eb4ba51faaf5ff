package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultOllamaURL is the standard local Ollama server address.
	// We use localhost because the classifier is expected to run next to
	// the scanner; remote inference endpoints go through --ollama-url.
	DefaultOllamaURL = "http://localhost:11434"

	// DefaultModel is the Ollama model used for classification when none
	// is configured. Any JSON-capable instruction model works.
	DefaultModel = "llama3"

	// DefaultTimeout is the navigation timeout per page load. Consent
	// banners and tag managers can delay rendering considerably, so this
	// is generous; plain HTTP fetches finish far earlier.
	DefaultTimeout = 60 * time.Second

	// DefaultBatchSize of 4 concurrent site analyses balances throughput
	// with resource usage. Each analysis can hold a browser tab and issue
	// classifier calls, and a local Ollama server serializes inference
	// anyway, so higher values mostly add memory pressure.
	DefaultBatchSize = 4

	// AppName is the application name used for XDG directory paths.
	AppName = "gdprscan"

	// DefaultUserAgent identifies gdprscan in HTTP requests. A descriptive
	// User-Agent lets site operators identify scanner traffic in their logs.
	DefaultUserAgent = "gdprscan/1.0 (+https://github.com/gdprscan/gdprscan)"

	// DefaultMaxBodySize limits the response body size read per page.
	// 5MB is sufficient for most HTML pages while preventing memory
	// exhaustion from unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB
)

// DefaultScenarios lists the consent scenarios applied to every site when
// none are configured. Accept-all and reject-all bracket the cookie
// behavior a visitor can experience.
func DefaultScenarios() []string {
	return []string{"accept", "reject"}
}

// ValidScenario reports whether the given consent scenario name is known.
func ValidScenario(scenario string) bool {
	return scenario == "accept" || scenario == "reject"
}

// Config holds all configuration options for gdprscan. This struct is
// populated from CLI flags and passed through the application via
// dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., BrowserConfig, ReportConfig) for simplicity. The number of
// options is manageable, and nesting would add complexity without
// significant benefit.
type Config struct {
	// OllamaURL is the base URL of the Ollama server used for
	// classification. All three discovery stages and the cookie
	// categorization go through this endpoint.
	OllamaURL string

	// Model is the Ollama model name used for classification.
	Model string

	// Timeout is the navigation timeout for each page load.
	Timeout time.Duration

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, info and above are logged.
	Verbose bool

	// BatchSize is the number of concurrent (site, scenario) analyses
	// when processing multiple targets.
	BatchSize int

	// ConfigFilePath is the path to the configuration file. If empty,
	// the tool searches for .gdprscan in the current directory and then
	// in the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds site-specific configurations loaded from the
	// config file. Populated by LoadConfigFile and used during analysis.
	SiteConfigs *File

	// Scenarios lists the consent scenarios to run per site. Each entry
	// must be "accept" or "reject"; empty means both.
	Scenarios []string

	// NoBrowser disables the headless browser and falls back to plain
	// HTTP fetching. Consent handling and cookie capture are skipped in
	// this mode; discovery still runs on the served HTML.
	NoBrowser bool

	// ShortCircuit makes a successful embedded check terminal instead of
	// still searching for a dedicated sub-page. Off by default because a
	// confirmed dedicated page is the more complete answer.
	ShortCircuit bool

	// JSONReport enables JSON report output instead of human-readable
	// format. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of
	// human-readable format. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report. When set, the
	// report is written to this file instead of stdout. Directories are
	// created automatically if they don't exist.
	ReportFile string

	// Targets is the list of site URLs to analyze. Must contain at least
	// one entry after CLI parsing (positional arguments or --list).
	Targets []string

	// DBDir is the directory path for storing the SQLite database.
	// When set, analysis results are saved for historical comparison.
	// When empty, results are not persisted.
	// Defaults to the XDG data directory (~/.local/share/gdprscan on Linux).
	DBDir string

	// SaveToDB indicates whether to save analysis results to the
	// database. Automatically set to true when DBDir is configured.
	SaveToDB bool

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Set to 0 to use the default (5MB).
	MaxBodySize int64
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, server
// URL). This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		OllamaURL:   DefaultOllamaURL,
		Model:       DefaultModel,
		Timeout:     DefaultTimeout,
		BatchSize:   DefaultBatchSize,
		Scenarios:   DefaultScenarios(),
		UserAgent:   DefaultUserAgent,
		MaxBodySize: DefaultMaxBodySize,
	}
}

// XDGDataDir returns the XDG data directory for gdprscan.
// On Linux: ~/.local/share/gdprscan
// On macOS: ~/Library/Application Support/gdprscan
// On Windows: %LOCALAPPDATA%\gdprscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for gdprscan.
// On Linux: ~/.config/gdprscan
// On macOS: ~/Library/Application Support/gdprscan
// On Windows: %APPDATA%\gdprscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid. It returns a specific
// error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any analysis begins.
// The first error found is returned rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}

	if c.OllamaURL == "" {
		return ErrNoOllamaURL
	}

	// Zero timeout would fail every page load immediately
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	// BatchSize must be positive; zero would mean no analysis runs
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	for _, s := range c.Scenarios {
		if !ValidScenario(s) {
			return ErrInvalidScenario
		}
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	return nil
}
