// Package database provides SQLite-based storage for gdprscan.
//
// This package implements the ScanDB, which stores one row per completed
// (site, scenario) analysis: the full SiteAnalysis as JSON plus key
// columns for history queries.
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
package database
