package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Search contains configuration for the remote wine search service.
type Search struct {
	Enabled        bool   `toml:"enabled"`
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	BatchSize      int    `toml:"batch_size"`
}

// Matching contains the matching orchestrator thresholds.
type Matching struct {
	// AcceptanceThreshold is the minimum score for fuzzy-local and single
	// remote hits. Default: 0.7
	AcceptanceThreshold float64 `toml:"acceptance_threshold"`
	// BatchDiscount lowers the acceptance threshold for batched remote hits,
	// which are not verified individually. Default: 0.05
	BatchDiscount float64 `toml:"batch_discount"`
	// ExactConfidence is the confidence reported for exact local hits. Default: 0.98
	ExactConfidence float64 `toml:"exact_confidence"`
	// FuzzyFloor is the minimum similarity the local index reports at all. Default: 0.5
	FuzzyFloor float64 `toml:"fuzzy_floor"`
}

// Segmenter contains candidate segmentation settings.
type Segmenter struct {
	// LineGap is the vertical gap, as a fraction of frame height, that splits two entries.
	LineGap   float64 `toml:"line_gap"`
	MinLength int     `toml:"min_length"`
	MinWords  int     `toml:"min_words"`
}

// Scanning contains frame tracker settings.
type Scanning struct {
	FrameIntervalMS  int     `toml:"frame_interval_ms"`
	OverlapThreshold float64 `toml:"overlap_threshold"`
	OverlayTTLMS     int     `toml:"overlay_ttl_ms"`
	RemoteWorkers    int     `toml:"remote_workers"`
	HistoryLimit     int     `toml:"history_limit"`
}

// Cache contains local match index persistence settings.
type Cache struct {
	CheckpointIntervalSeconds int `toml:"checkpoint_interval_seconds"`
}

// Recognizer contains text recognition settings.
type Recognizer struct {
	ConfidenceFloor   float64 `toml:"confidence_floor"`
	TesseractLanguage string  `toml:"tesseract_language"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for winelens.
//
// Configuration sections by subsystem:
//   - Paths: data and log directories
//   - Search: remote search service connection
//   - Matching: tier acceptance thresholds
//   - Segmenter: candidate grouping and filtering
//   - Scanning: frame debounce, overlay merge, session history
//   - Cache: match index snapshot cadence
//   - Recognizer: confidence floor and OCR language
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Search     Search     `toml:"search"`
	Matching   Matching   `toml:"matching"`
	Segmenter  Segmenter  `toml:"segmenter"`
	Scanning   Scanning   `toml:"scanning"`
	Cache      Cache      `toml:"cache"`
	Recognizer Recognizer `toml:"recognizer"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("winelens.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// IndexSnapshotPath is the location of the persisted match index snapshot.
func (c *Config) IndexSnapshotPath() string {
	return filepath.Join(c.Paths.DataDir, "match_index.json")
}

// SessionDBPath is the location of the session and history database.
func (c *Config) SessionDBPath() string {
	return filepath.Join(c.Paths.DataDir, "sessions.db")
}

// SearchTimeout returns the per-call bound for remote search requests.
func (c *Config) SearchTimeout() time.Duration {
	return time.Duration(c.Search.TimeoutSeconds) * time.Second
}

// FrameInterval returns the minimum spacing between processed frames.
func (c *Config) FrameInterval() time.Duration {
	return time.Duration(c.Scanning.FrameIntervalMS) * time.Millisecond
}

// OverlayTTL returns how long an overlay entry survives without being re-seen.
func (c *Config) OverlayTTL() time.Duration {
	return time.Duration(c.Scanning.OverlayTTLMS) * time.Millisecond
}

// CheckpointInterval returns the match index snapshot cadence.
func (c *Config) CheckpointInterval() time.Duration {
	return time.Duration(c.Cache.CheckpointIntervalSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
