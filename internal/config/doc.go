// Package config provides configuration structures and utilities for
// gdprscan. It defines the main options for site analysis, classifier
// access, consent scenarios, and report generation preferences.
package config
