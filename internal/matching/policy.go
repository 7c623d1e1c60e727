package matching

import (
	"time"

	"winelens/internal/config"
)

// Policy centralizes tier thresholds and remote call limits.
type Policy struct {
	AcceptanceThreshold float64
	BatchDiscount       float64
	ExactConfidence     float64
	BatchSize           int
	RemoteTimeout       time.Duration
}

// DefaultPolicy returns the stock thresholds.
func DefaultPolicy() Policy {
	return Policy{
		AcceptanceThreshold: 0.7,
		BatchDiscount:       0.05,
		ExactConfidence:     0.98,
		BatchSize:           20,
		RemoteTimeout:       5 * time.Second,
	}
}

// PolicyFromConfig reads the [matching] and [search] sections.
func PolicyFromConfig(cfg *config.Config) Policy {
	if cfg == nil {
		return DefaultPolicy()
	}
	return Policy{
		AcceptanceThreshold: cfg.Matching.AcceptanceThreshold,
		BatchDiscount:       cfg.Matching.BatchDiscount,
		ExactConfidence:     cfg.Matching.ExactConfidence,
		BatchSize:           cfg.Search.BatchSize,
		RemoteTimeout:       cfg.SearchTimeout(),
	}.normalized()
}

// BatchThreshold is the acceptance threshold for batched remote hits.
func (p Policy) BatchThreshold() float64 {
	return max(0, p.AcceptanceThreshold-p.BatchDiscount)
}

func (p Policy) normalized() Policy {
	d := DefaultPolicy()
	if p.AcceptanceThreshold <= 0 || p.AcceptanceThreshold > 1 {
		p.AcceptanceThreshold = d.AcceptanceThreshold
	}
	if p.BatchDiscount < 0 || p.BatchDiscount >= p.AcceptanceThreshold {
		p.BatchDiscount = d.BatchDiscount
	}
	if p.ExactConfidence <= 0 || p.ExactConfidence > 1 {
		p.ExactConfidence = d.ExactConfidence
	}
	if p.BatchSize <= 0 {
		p.BatchSize = d.BatchSize
	}
	if p.RemoteTimeout <= 0 {
		p.RemoteTimeout = d.RemoteTimeout
	}
	return p
}
