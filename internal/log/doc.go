// Package log provides scan-aware logging on top of the standard slog
// package.
//
// A scan processes many (site, scenario, target) combinations
// concurrently, so a log line is useless without that context. Instead of
// threading the triple through every call site, it is attached to the
// context.Context once per run and the ContextHandler stamps it onto
// every record automatically.
//
// The handler also masks cookie values. Captured cookies may carry live
// session identifiers for the analyzed site, and those must not end up in
// logs that get shared or stored.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, verbose)
//	ctx = log.WithSite(ctx, "https://example.com", "accept")
//	ctx = log.WithTarget(ctx, "privacy_policy")
//	logger.InfoContext(ctx, "stage complete") // carries site, scenario, target
package log
