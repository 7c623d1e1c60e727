package testsupport

import (
	"path/filepath"
	"testing"

	"winelens/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Remote search is disabled unless WithSearch is applied.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Search.Enabled = false
	cfgVal.Search.APIKey = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	return builder.cfg
}

// WithSearch enables remote search against baseURL.
func WithSearch(baseURL, apiKey string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Search.Enabled = true
		b.cfg.Search.BaseURL = baseURL
		b.cfg.Search.APIKey = apiKey
	}
}

// WithFrameInterval overrides the scanning debounce interval.
func WithFrameInterval(ms int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Scanning.FrameIntervalMS = ms
	}
}

// WithOverlayTTL overrides how long overlay entries live without a sighting.
func WithOverlayTTL(ms int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Scanning.OverlayTTLMS = ms
	}
}
