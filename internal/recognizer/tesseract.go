//go:build tesseract

package recognizer

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"winelens/internal/services"
	"winelens/internal/wine"
)

// TesseractRecognizer runs Tesseract line recognition on still images.
type TesseractRecognizer struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// NewTesseract creates a Tesseract-backed recognizer for language.
func NewTesseract(language string) (*TesseractRecognizer, error) {
	client := gosseract.NewClient()
	if err := client.SetLanguage(language); err != nil {
		client.Close()
		return nil, services.Wrap(services.ErrExternalTool, "recognizer", "init tesseract", "set language", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		client.Close()
		return nil, services.Wrap(services.ErrExternalTool, "recognizer", "init tesseract", "set page segmentation", err)
	}
	return &TesseractRecognizer{client: client}, nil
}

// Close releases the Tesseract client.
func (t *TesseractRecognizer) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client == nil {
		return nil
	}
	err := t.client.Close()
	t.client = nil
	return err
}

// Recognize returns one fragment per text line, with boxes scaled to the
// image size.
func (t *TesseractRecognizer) Recognize(ctx context.Context, data []byte) ([]wine.Fragment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "recognizer", "decode image", "unsupported image", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, services.Wrap(services.ErrValidation, "recognizer", "decode image", "empty image", nil)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client == nil {
		return nil, services.Wrap(services.ErrExternalTool, "recognizer", "recognize", "client closed", nil)
	}
	if err := t.client.SetImageFromBytes(data); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "recognizer", "recognize", "set image", err)
	}
	boxes, err := t.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "recognizer", "recognize", fmt.Sprintf("bounding boxes (%dx%d)", cfg.Width, cfg.Height), err)
	}

	w, h := float64(cfg.Width), float64(cfg.Height)
	fragments := make([]wine.Fragment, 0, len(boxes))
	for _, box := range boxes {
		text := strings.TrimSpace(box.Word)
		if text == "" {
			continue
		}
		fragments = append(fragments, wine.Fragment{
			Text: text,
			Box: wine.BoundingBox{
				X:      float64(box.Box.Min.X) / w,
				Y:      float64(box.Box.Min.Y) / h,
				Width:  float64(box.Box.Dx()) / w,
				Height: float64(box.Box.Dy()) / h,
			},
			Confidence: box.Confidence / 100,
		})
	}
	return fragments, nil
}
