package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"winelens/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("WINELENS_SEARCH_API_KEY", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "winelens")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Search.Enabled {
		t.Fatal("expected search disabled by default")
	}
	if cfg.Matching.AcceptanceThreshold != 0.7 {
		t.Fatalf("unexpected acceptance threshold: %v", cfg.Matching.AcceptanceThreshold)
	}
	if cfg.Scanning.OverlapThreshold != 0.5 {
		t.Fatalf("unexpected overlap threshold: %v", cfg.Scanning.OverlapThreshold)
	}
	if cfg.Scanning.HistoryLimit != 50 {
		t.Fatalf("unexpected history limit: %d", cfg.Scanning.HistoryLimit)
	}
	if cfg.FrameInterval() != 500*time.Millisecond {
		t.Fatalf("unexpected frame interval: %v", cfg.FrameInterval())
	}
	if cfg.SessionDBPath() != filepath.Join(wantData, "sessions.db") {
		t.Fatalf("unexpected session db path: %q", cfg.SessionDBPath())
	}
}

func TestLoadCustomConfigOverridesValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "winelens.toml")

	custom := config.Default()
	custom.Paths.DataDir = filepath.Join(dir, "data")
	custom.Search.Enabled = true
	custom.Search.APIKey = "secret"
	custom.Search.BaseURL = "https://search.example.com/"
	custom.Matching.AcceptanceThreshold = 0.8
	custom.Logging.Format = "JSON"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected custom config to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Search.BaseURL != "https://search.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Search.BaseURL)
	}
	if cfg.Matching.AcceptanceThreshold != 0.8 {
		t.Fatalf("unexpected threshold: %v", cfg.Matching.AcceptanceThreshold)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected lowercased log format, got %q", cfg.Logging.Format)
	}
}

func TestSearchKeyFallsBackToEnv(t *testing.T) {
	t.Setenv("WINELENS_SEARCH_API_KEY", "from-env")
	dir := t.TempDir()
	path := filepath.Join(dir, "winelens.toml")
	content := "[paths]\ndata_dir = \"" + filepath.ToSlash(filepath.Join(dir, "data")) + "\"\n[search]\nenabled = true\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Search.APIKey != "from-env" {
		t.Fatalf("expected key from env, got %q", cfg.Search.APIKey)
	}
}

func TestValidateRejectsEnabledSearchWithoutKey(t *testing.T) {
	t.Setenv("WINELENS_SEARCH_API_KEY", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "winelens.toml")
	if err := os.WriteFile(path, []byte("[search]\nenabled = true\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "search.api_key") {
		t.Fatalf("expected api key error, got %v", err)
	}
}

func TestValidateThresholdBounds(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"acceptance above one", func(c *config.Config) { c.Matching.AcceptanceThreshold = 1.5 }},
		{"discount swallows threshold", func(c *config.Config) { c.Matching.BatchDiscount = 0.9 }},
		{"floor above acceptance", func(c *config.Config) { c.Matching.FuzzyFloor = 0.9 }},
		{"overlap above one", func(c *config.Config) { c.Scanning.OverlapThreshold = 2 }},
		{"line gap whole frame", func(c *config.Config) { c.Segmenter.LineGap = 1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Search.BatchSize != 20 {
		t.Fatalf("unexpected batch size from sample: %d", cfg.Search.BatchSize)
	}
}
