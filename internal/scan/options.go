package scan

import (
	"time"

	"winelens/internal/config"
	"winelens/internal/segment"
	"winelens/internal/wine"
)

const (
	defaultFrameInterval    = 500 * time.Millisecond
	defaultOverlapThreshold = 0.5
	defaultOverlayTTL       = 3 * time.Second
	defaultRemoteWorkers    = 2
	defaultEventBuffer      = 64
	persistTimeout          = 5 * time.Second
)

// Options tunes a Tracker.
type Options struct {
	FrameInterval    time.Duration
	OverlapThreshold float64
	OverlayTTL       time.Duration
	RemoteWorkers    int
	EventBuffer      int
	Segmenter        segment.Options
	// Location is recorded on sessions the tracker starts.
	Location *wine.Location
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// DefaultOptions returns the stock tuning.
func DefaultOptions() Options {
	return Options{
		FrameInterval:    defaultFrameInterval,
		OverlapThreshold: defaultOverlapThreshold,
		OverlayTTL:       defaultOverlayTTL,
		RemoteWorkers:    defaultRemoteWorkers,
		EventBuffer:      defaultEventBuffer,
		Segmenter:        segment.DefaultOptions(),
		Clock:            time.Now,
	}
}

// OptionsFromConfig reads the [scanning] and [segmenter] sections.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := DefaultOptions()
	if cfg == nil {
		return opts
	}
	opts.FrameInterval = cfg.FrameInterval()
	opts.OverlapThreshold = cfg.Scanning.OverlapThreshold
	opts.OverlayTTL = cfg.OverlayTTL()
	opts.RemoteWorkers = cfg.Scanning.RemoteWorkers
	opts.Segmenter = segment.OptionsFromConfig(cfg)
	return opts.normalized()
}

func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.FrameInterval < 0 {
		o.FrameInterval = d.FrameInterval
	}
	if o.OverlapThreshold <= 0 || o.OverlapThreshold > 1 {
		o.OverlapThreshold = d.OverlapThreshold
	}
	if o.OverlayTTL <= 0 {
		o.OverlayTTL = d.OverlayTTL
	}
	if o.RemoteWorkers <= 0 {
		o.RemoteWorkers = d.RemoteWorkers
	}
	if o.EventBuffer <= 0 {
		o.EventBuffer = d.EventBuffer
	}
	if o.Clock == nil {
		o.Clock = d.Clock
	}
	return o
}
