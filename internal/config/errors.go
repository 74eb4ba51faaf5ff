package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages. Using errors.New() here rather than fmt.Errorf()
// because we don't need to include dynamic values in these messages.
var (
	// ErrNoTarget is returned when no target site URL or list file is
	// specified. This error occurs when neither --list nor a positional
	// argument provides a target.
	ErrNoTarget = errors.New("no target specified: provide a site URL or use --list")

	// ErrNoOllamaURL is returned when the Ollama server URL is empty.
	// The classifier cannot run without an inference endpoint.
	ErrNoOllamaURL = errors.New("no ollama server URL: set --ollama-url")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	// A timeout of zero or negative would fail every page load.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	// A batch size of zero would mean no concurrent analyses, effectively
	// stopping the scan.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidScenario is returned when a consent scenario is neither
	// "accept" nor "reject".
	ErrInvalidScenario = errors.New("invalid consent scenario: must be accept or reject")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// A negative body size is invalid; use 0 to use the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")
)
