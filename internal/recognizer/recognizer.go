package recognizer

import (
	"context"
	"strings"

	"winelens/internal/config"
	"winelens/internal/services"
	"winelens/internal/wine"
)

// DefaultConfidenceFloor drops fragments the backend is unsure about.
const DefaultConfidenceFloor = 0.5

// Recognizer extracts text fragments from one image or frame.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) ([]wine.Fragment, error)
}

// Func adapts a function to Recognizer.
type Func func(ctx context.Context, image []byte) ([]wine.Fragment, error)

func (f Func) Recognize(ctx context.Context, image []byte) ([]wine.Fragment, error) {
	return f(ctx, image)
}

type floored struct {
	next  Recognizer
	floor float64
}

// WithConfidenceFloor filters fragments below floor, drops blank text, and
// clamps boxes into the unit square.
func WithConfidenceFloor(next Recognizer, floor float64) Recognizer {
	if floor <= 0 || floor > 1 {
		floor = DefaultConfidenceFloor
	}
	return floored{next: next, floor: floor}
}

func (f floored) Recognize(ctx context.Context, image []byte) ([]wine.Fragment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fragments, err := f.next.Recognize(ctx, image)
	if err != nil {
		return nil, err
	}
	out := make([]wine.Fragment, 0, len(fragments))
	for _, frag := range fragments {
		frag.Text = strings.TrimSpace(frag.Text)
		if frag.Text == "" || frag.Confidence < f.floor {
			continue
		}
		frag.Confidence = min(frag.Confidence, 1)
		frag.Box = frag.Box.Clamp()
		out = append(out, frag)
	}
	return out, nil
}

// Backend names accepted by FromConfig.
const (
	BackendJSON      = "json"
	BackendTesseract = "tesseract"
)

// FromConfig builds the named backend wrapped with the configured floor.
func FromConfig(cfg *config.Config, backend string) (Recognizer, func() error, error) {
	floor := DefaultConfidenceFloor
	language := "eng"
	if cfg != nil {
		floor = cfg.Recognizer.ConfidenceFloor
		if cfg.Recognizer.TesseractLanguage != "" {
			language = cfg.Recognizer.TesseractLanguage
		}
	}
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendJSON:
		return WithConfidenceFloor(JSONRecognizer{}, floor), func() error { return nil }, nil
	case BackendTesseract:
		tess, err := NewTesseract(language)
		if err != nil {
			return nil, nil, err
		}
		return WithConfidenceFloor(tess, floor), tess.Close, nil
	default:
		return nil, nil, services.Wrap(services.ErrConfiguration, "recognizer", "select backend",
			"unknown backend "+backend, nil)
	}
}
