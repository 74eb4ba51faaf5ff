// Package model defines the core data structures used throughout gdprscan.
//
// This package contains the following main types:
//   - TargetType: The five compliance facts the scanner locates
//   - CandidateLink: A scoped, deduplicated link extracted from a page
//   - DiscoveryResult: The terminal outcome of one discovery protocol run
//   - SiteAnalysis: The aggregated result for one (site, scenario) pair
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (extractor, discovery, report, database)
// need to use these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
