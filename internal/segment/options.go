package segment

import "winelens/internal/config"

const (
	defaultLineGap   = 0.025
	defaultMinLength = 4
	defaultMinWords  = 3
)

// Options tunes grouping and filtering.
type Options struct {
	// LineGap is the largest vertical gap, as a fraction of frame height,
	// that still joins a fragment to the current group.
	LineGap float64
	// MinLength drops candidates with fewer runes than this.
	MinLength int
	// MinWords keeps candidates without a wine signal when they have at
	// least this many words.
	MinWords int
}

// DefaultOptions returns the stock tuning.
func DefaultOptions() Options {
	return Options{LineGap: defaultLineGap, MinLength: defaultMinLength, MinWords: defaultMinWords}
}

// OptionsFromConfig reads the [segmenter] section.
func OptionsFromConfig(cfg *config.Config) Options {
	if cfg == nil {
		return DefaultOptions()
	}
	return Options{
		LineGap:   cfg.Segmenter.LineGap,
		MinLength: cfg.Segmenter.MinLength,
		MinWords:  cfg.Segmenter.MinWords,
	}.normalized()
}

func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.LineGap <= 0 {
		o.LineGap = d.LineGap
	}
	if o.MinLength <= 0 {
		o.MinLength = d.MinLength
	}
	if o.MinWords <= 0 {
		o.MinWords = d.MinWords
	}
	return o
}
