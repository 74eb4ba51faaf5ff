package config

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".gdprscan"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile loads site configurations from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error appropriately based on whether
// the config file path was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	if cf.Sites == nil {
		cf.Sites = make(map[string]SiteConfig)
	}

	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .gdprscan in the current directory
// 3. Look for .gdprscan in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}

// LoadSiteList reads target site URLs from a CSV file. The URL is taken
// from the first column; a header row whose first cell does not look like
// a URL is skipped, as are empty rows and rows starting with '#'.
//
// Design decision: CSV rather than one-URL-per-line because site lists
// are usually exported from spreadsheets that carry extra columns
// (company name, country) alongside the URL; those columns are ignored.
func LoadSiteList(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided list path is intentional
	if err != nil {
		return nil, fmt.Errorf("open site list: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // rows may carry differing column counts
	reader.TrimLeadingSpace = true

	var sites []string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse site list: %w", err)
		}
		if len(record) == 0 {
			continue
		}

		cell := strings.TrimSpace(record[0])
		if cell == "" || strings.HasPrefix(cell, "#") {
			continue
		}
		// Header rows name the column instead of holding a URL.
		if !strings.Contains(cell, ".") && !strings.Contains(cell, "://") {
			continue
		}
		sites = append(sites, normalizeSiteURL(cell))
	}

	if len(sites) == 0 {
		return nil, fmt.Errorf("site list %s contains no URLs", path)
	}
	return sites, nil
}

// normalizeSiteURL defaults bare hosts to https.
func normalizeSiteURL(raw string) string {
	if strings.Contains(raw, "://") {
		return raw
	}
	return "https://" + raw
}
