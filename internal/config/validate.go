package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSearch(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateSegmenter(); err != nil {
		return err
	}
	if err := c.validateScanning(); err != nil {
		return err
	}
	if c.Recognizer.ConfidenceFloor < 0 || c.Recognizer.ConfidenceFloor > 1 {
		return errors.New("recognizer.confidence_floor must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateSearch() error {
	if !c.Search.Enabled {
		return nil
	}
	if c.Search.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("search.api_key is required when search is enabled. Set WINELENS_SEARCH_API_KEY or edit %s (create with 'winelens config init')", defaultPath)
	}
	parsed, err := url.Parse(c.Search.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("search.base_url %q is not an absolute URL", c.Search.BaseURL)
	}
	return nil
}

func (c *Config) validateMatching() error {
	m := c.Matching
	if m.AcceptanceThreshold <= 0 || m.AcceptanceThreshold > 1 {
		return errors.New("matching.acceptance_threshold must be in (0, 1]")
	}
	if m.BatchDiscount >= m.AcceptanceThreshold {
		return errors.New("matching.batch_discount must be smaller than matching.acceptance_threshold")
	}
	if m.ExactConfidence <= 0 || m.ExactConfidence > 1 {
		return errors.New("matching.exact_confidence must be in (0, 1]")
	}
	if m.FuzzyFloor <= 0 || m.FuzzyFloor > m.AcceptanceThreshold {
		return errors.New("matching.fuzzy_floor must be positive and not exceed matching.acceptance_threshold")
	}
	return nil
}

func (c *Config) validateSegmenter() error {
	if c.Segmenter.LineGap >= 1 {
		return errors.New("segmenter.line_gap must be a fraction of the frame height")
	}
	return nil
}

func (c *Config) validateScanning() error {
	if c.Scanning.OverlapThreshold <= 0 || c.Scanning.OverlapThreshold > 1 {
		return errors.New("scanning.overlap_threshold must be in (0, 1]")
	}
	return nil
}
