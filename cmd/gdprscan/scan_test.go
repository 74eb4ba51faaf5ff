package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gdprscan/gdprscan/internal/config"
	"github.com/gdprscan/gdprscan/internal/model"
)

// TestNewScanCmd tests the scan command creation.
func TestNewScanCmd(t *testing.T) {
	t.Parallel()

	cmd := NewScanCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "scan [site-url...]" {
			t.Errorf("expected use 'scan [site-url...]', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has long description", func(t *testing.T) {
		t.Parallel()
		if cmd.Long == "" {
			t.Error("expected non-empty long description")
		}
	})

	t.Run("has ollama-url flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("ollama-url")
		if flag == nil {
			t.Fatal("expected ollama-url flag")
		}
		if flag.Shorthand != "u" {
			t.Errorf("expected shorthand 'u', got %q", flag.Shorthand)
		}
		if flag.DefValue != config.DefaultOllamaURL {
			t.Errorf("expected default %q, got %q", config.DefaultOllamaURL, flag.DefValue)
		}
	})

	t.Run("has model flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("model")
		if flag == nil {
			t.Fatal("expected model flag")
		}
		if flag.DefValue != config.DefaultModel {
			t.Errorf("expected default %q, got %q", config.DefaultModel, flag.DefValue)
		}
	})

	t.Run("has scenario flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("scenario")
		if flag == nil {
			t.Fatal("expected scenario flag")
		}
		if flag.Shorthand != "s" {
			t.Errorf("expected shorthand 's', got %q", flag.Shorthand)
		}
	})

	t.Run("has timeout flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("timeout")
		if flag == nil {
			t.Fatal("expected timeout flag")
		}
		if flag.Shorthand != "t" {
			t.Errorf("expected shorthand 't', got %q", flag.Shorthand)
		}
	})

	t.Run("has no-browser flag", func(t *testing.T) {
		t.Parallel()
		if cmd.Flags().Lookup("no-browser") == nil {
			t.Fatal("expected no-browser flag")
		}
	})

	t.Run("has short-circuit flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("short-circuit")
		if flag == nil {
			t.Fatal("expected short-circuit flag")
		}
		if flag.DefValue != "false" {
			t.Errorf("expected default 'false', got %q", flag.DefValue)
		}
	})

	t.Run("has batch flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("batch")
		if flag == nil {
			t.Fatal("expected batch flag")
		}
		if flag.Shorthand != "b" {
			t.Errorf("expected shorthand 'b', got %q", flag.Shorthand)
		}
	})

	t.Run("has list flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("list")
		if flag == nil {
			t.Fatal("expected list flag")
		}
		if flag.Shorthand != "l" {
			t.Errorf("expected shorthand 'l', got %q", flag.Shorthand)
		}
	})

	t.Run("has json flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("json")
		if flag == nil {
			t.Fatal("expected json flag")
		}
		if flag.Shorthand != "j" {
			t.Errorf("expected shorthand 'j', got %q", flag.Shorthand)
		}
	})

	t.Run("has output flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("output")
		if flag == nil {
			t.Fatal("expected output flag")
		}
		if flag.Shorthand != "o" {
			t.Errorf("expected shorthand 'o', got %q", flag.Shorthand)
		}
	})

	t.Run("does not have db-dir flag (uses XDG)", func(t *testing.T) {
		t.Parallel()
		if cmd.Flags().Lookup("db-dir") != nil {
			t.Error("db-dir flag should not exist (always uses XDG data directory)")
		}
	})
}

// TestGetVerboseFlag tests the verbose flag retrieval.
func TestGetVerboseFlag(t *testing.T) {
	t.Run("returns false when flag not set", func(t *testing.T) {
		cmd := NewScanCmd()
		if getVerboseFlag(cmd) {
			t.Error("expected false when flag not set")
		}
	})

	t.Run("returns value from parent verbose flag", func(t *testing.T) {
		root := NewRootCmd()
		_ = root.PersistentFlags().Set("verbose", "true")

		scanCmd, _, err := root.Find([]string{"scan"})
		if err != nil {
			t.Fatalf("failed to find scan command: %v", err)
		}

		if !getVerboseFlag(scanCmd) {
			t.Error("expected true from parent verbose flag")
		}
	})
}

// TestBuildConfig tests configuration building from flags.
func TestBuildConfig(t *testing.T) {
	t.Run("builds config with default values", func(t *testing.T) {
		cmd := NewScanCmd()
		cfg, err := buildConfig(cmd, []string{"https://example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg == nil {
			t.Fatal("expected non-nil config")
		}
		if len(cfg.Targets) != 1 || cfg.Targets[0] != "https://example.com" {
			t.Errorf("expected targets [https://example.com], got %v", cfg.Targets)
		}
		if cfg.OllamaURL != config.DefaultOllamaURL {
			t.Errorf("expected default Ollama URL, got %q", cfg.OllamaURL)
		}
		if len(cfg.Scenarios) != 2 {
			t.Errorf("expected both scenarios by default, got %v", cfg.Scenarios)
		}
		if !cfg.SaveToDB {
			t.Error("expected SaveToDB to be true")
		}
	})

	t.Run("builds config with custom scenario", func(t *testing.T) {
		cmd := NewScanCmd()
		_ = cmd.Flags().Set("scenario", "accept")
		cfg, err := buildConfig(cmd, []string{"https://example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(cfg.Scenarios) != 1 || cfg.Scenarios[0] != "accept" {
			t.Errorf("expected scenarios [accept], got %v", cfg.Scenarios)
		}
	})

	t.Run("builds config with no-browser", func(t *testing.T) {
		cmd := NewScanCmd()
		_ = cmd.Flags().Set("no-browser", "true")
		cfg, err := buildConfig(cmd, []string{"https://example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !cfg.NoBrowser {
			t.Error("expected NoBrowser to be true")
		}
	})

	t.Run("builds config with custom batch size", func(t *testing.T) {
		cmd := NewScanCmd()
		_ = cmd.Flags().Set("batch", "8")
		cfg, err := buildConfig(cmd, []string{"https://example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.BatchSize != 8 {
			t.Errorf("expected BatchSize 8, got %d", cfg.BatchSize)
		}
	})

	t.Run("builds config with JSON flag", func(t *testing.T) {
		cmd := NewScanCmd()
		_ = cmd.Flags().Set("json", "true")
		cfg, err := buildConfig(cmd, []string{"https://example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !cfg.JSONReport {
			t.Error("expected JSONReport to be true")
		}
	})

	t.Run("appends sites from list file", func(t *testing.T) {
		tmpDir := t.TempDir()
		listPath := filepath.Join(tmpDir, "sites.csv")
		content := []byte("url\nexample.com\nhttps://example.org\n")
		if err := os.WriteFile(listPath, content, 0o600); err != nil {
			t.Fatalf("failed to write list: %v", err)
		}

		cmd := NewScanCmd()
		_ = cmd.Flags().Set("list", listPath)
		cfg, err := buildConfig(cmd, []string{"https://example.net"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(cfg.Targets) != 3 {
			t.Fatalf("expected 3 targets, got %v", cfg.Targets)
		}
		if cfg.Targets[1] != "https://example.com" {
			t.Errorf("expected normalized URL, got %q", cfg.Targets[1])
		}
	})

	t.Run("builds config with valid config file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "gdprscan.yaml")

		content := []byte(`
defaults:
  consentLabels:
    - "accept everything"
sites:
  example.com:
    entryPath: "/en"
`)
		if err := os.WriteFile(configPath, content, 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cmd := NewScanCmd()
		_ = cmd.Flags().Set("config", configPath)
		cfg, err := buildConfig(cmd, []string{"https://example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.SiteConfigs == nil {
			t.Fatal("expected SiteConfigs to be loaded")
		}
		if len(cfg.SiteConfigs.Defaults.ConsentLabels) != 1 {
			t.Errorf("expected default consent label, got %v", cfg.SiteConfigs.Defaults.ConsentLabels)
		}
	})

	t.Run("returns error for missing explicit config file", func(t *testing.T) {
		cmd := NewScanCmd()
		_ = cmd.Flags().Set("config", "/nonexistent/gdprscan.yaml")
		_, err := buildConfig(cmd, []string{"https://example.com"})
		if err == nil {
			t.Fatal("expected error for missing config file")
		}
	})

	t.Run("returns error for invalid config file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "invalid.yaml")

		if err := os.WriteFile(configPath, []byte(`{invalid yaml`), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cmd := NewScanCmd()
		_ = cmd.Flags().Set("config", configPath)
		_, err := buildConfig(cmd, []string{"https://example.com"})
		if err == nil {
			t.Fatal("expected error for invalid config file")
		}
	})
}

// TestGetSiteConfig tests site configuration retrieval.
func TestGetSiteConfig(t *testing.T) {
	t.Parallel()

	t.Run("returns empty config for nil SiteConfigs", func(t *testing.T) {
		t.Parallel()
		cfg := &config.Config{SiteConfigs: nil}
		result := getSiteConfig(cfg, "https://example.com")
		if len(result.ConsentLabels) != 0 {
			t.Error("expected empty config")
		}
	})

	t.Run("matches by host without protocol", func(t *testing.T) {
		t.Parallel()
		cfg := &config.Config{
			SiteConfigs: &config.File{
				Sites: map[string]config.SiteConfig{
					"example.com": {EntryPath: "/en"},
				},
			},
		}
		result := getSiteConfig(cfg, "https://example.com")
		if result.EntryPath != "/en" {
			t.Errorf("expected entry path '/en', got %q", result.EntryPath)
		}
	})

	t.Run("merges defaults with site overrides", func(t *testing.T) {
		t.Parallel()
		cfg := &config.Config{
			SiteConfigs: &config.File{
				Defaults: config.SiteConfig{ConsentLabels: []string{"default label"}},
				Sites: map[string]config.SiteConfig{
					"example.com": {Skip: true},
				},
			},
		}
		result := getSiteConfig(cfg, "https://example.com")
		if !result.Skip {
			t.Error("expected Skip from site override")
		}
		if len(result.ConsentLabels) != 1 {
			t.Error("expected consent labels from defaults")
		}
	})
}

// TestHostOf tests host extraction from site URLs.
func TestHostOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "https url", in: "https://example.com", want: "example.com"},
		{name: "url with path", in: "https://example.com/en/home", want: "example.com"},
		{name: "url with port", in: "http://localhost:8080", want: "localhost:8080"},
		{name: "bare host", in: "example.com", want: "example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := hostOf(tt.in); got != tt.want {
				t.Errorf("hostOf(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// TestApplyEntryPath tests entry path rewriting.
func TestApplyEntryPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		siteURL   string
		entryPath string
		want      string
	}{
		{name: "empty path keeps url", siteURL: "https://example.com", entryPath: "", want: "https://example.com"},
		{name: "sets path", siteURL: "https://example.com", entryPath: "/en", want: "https://example.com/en"},
		{name: "replaces existing path", siteURL: "https://example.com/de", entryPath: "/en", want: "https://example.com/en"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyEntryPath(tt.siteURL, tt.entryPath); got != tt.want {
				t.Errorf("applyEntryPath(%q, %q) = %q, want %q", tt.siteURL, tt.entryPath, got, tt.want)
			}
		})
	}
}

// TestBuildProfiles tests keyword profile override merging.
func TestBuildProfiles(t *testing.T) {
	t.Parallel()

	t.Run("nil for no overrides", func(t *testing.T) {
		t.Parallel()
		if got := buildProfiles(nil); got != nil {
			t.Errorf("expected nil, got %v", got)
		}
	})

	t.Run("overrides one target, keeps the rest", func(t *testing.T) {
		t.Parallel()
		profiles := buildProfiles(map[string][]string{
			"privacy_policy": {"integritetspolicy"},
		})
		if profiles == nil {
			t.Fatal("expected profiles")
		}
		if got := profiles[model.TargetPrivacyPolicy]; len(got) != 1 || got[0] != "integritetspolicy" {
			t.Errorf("privacy profile = %v", got)
		}
		if got := profiles[model.TargetDPOContact]; len(got) == 0 {
			t.Error("expected built-in DPO profile to survive")
		}
	})

	t.Run("ignores unknown target names", func(t *testing.T) {
		t.Parallel()
		profiles := buildProfiles(map[string][]string{
			"no_such_target": {"whatever"},
		})
		if profiles == nil {
			t.Fatal("expected profiles")
		}
		if got := profiles[model.TargetPrivacyPolicy]; len(got) == 0 {
			t.Error("expected built-in profiles to be intact")
		}
	})
}
