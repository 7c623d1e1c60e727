package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSearch()
	c.normalizeMatching()
	c.normalizeSegmenter()
	c.normalizeScanning()
	c.normalizeRecognizer()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSearch() {
	c.Search.APIKey = strings.TrimSpace(c.Search.APIKey)
	if c.Search.APIKey == "" {
		if value, ok := os.LookupEnv("WINELENS_SEARCH_API_KEY"); ok {
			c.Search.APIKey = strings.TrimSpace(value)
		}
	}
	c.Search.BaseURL = strings.TrimRight(strings.TrimSpace(c.Search.BaseURL), "/")
	if c.Search.BaseURL == "" {
		c.Search.BaseURL = defaultSearchBaseURL
	}
	if c.Search.TimeoutSeconds <= 0 {
		c.Search.TimeoutSeconds = defaultSearchTimeout
	}
	if c.Search.BatchSize <= 0 {
		c.Search.BatchSize = defaultSearchBatchSize
	}
}

func (c *Config) normalizeMatching() {
	if c.Matching.AcceptanceThreshold == 0 {
		c.Matching.AcceptanceThreshold = defaultAcceptanceThreshold
	}
	if c.Matching.ExactConfidence == 0 {
		c.Matching.ExactConfidence = defaultExactConfidence
	}
	if c.Matching.FuzzyFloor == 0 {
		c.Matching.FuzzyFloor = defaultFuzzyFloor
	}
	if c.Matching.BatchDiscount < 0 {
		c.Matching.BatchDiscount = 0
	}
}

func (c *Config) normalizeSegmenter() {
	if c.Segmenter.LineGap <= 0 {
		c.Segmenter.LineGap = defaultLineGap
	}
	if c.Segmenter.MinLength <= 0 {
		c.Segmenter.MinLength = defaultMinLength
	}
	if c.Segmenter.MinWords <= 0 {
		c.Segmenter.MinWords = defaultMinWords
	}
}

func (c *Config) normalizeScanning() {
	if c.Scanning.FrameIntervalMS <= 0 {
		c.Scanning.FrameIntervalMS = defaultFrameIntervalMS
	}
	if c.Scanning.OverlapThreshold == 0 {
		c.Scanning.OverlapThreshold = defaultOverlapThreshold
	}
	if c.Scanning.OverlayTTLMS <= 0 {
		c.Scanning.OverlayTTLMS = defaultOverlayTTLMS
	}
	if c.Scanning.RemoteWorkers <= 0 {
		c.Scanning.RemoteWorkers = defaultRemoteWorkers
	}
	if c.Scanning.HistoryLimit <= 0 {
		c.Scanning.HistoryLimit = defaultHistoryLimit
	}
	if c.Cache.CheckpointIntervalSeconds <= 0 {
		c.Cache.CheckpointIntervalSeconds = defaultCheckpointInterval
	}
}

func (c *Config) normalizeRecognizer() {
	if c.Recognizer.ConfidenceFloor == 0 {
		c.Recognizer.ConfidenceFloor = defaultConfidenceFloor
	}
	c.Recognizer.TesseractLanguage = strings.TrimSpace(c.Recognizer.TesseractLanguage)
	if c.Recognizer.TesseractLanguage == "" {
		c.Recognizer.TesseractLanguage = defaultTesseractLanguage
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
