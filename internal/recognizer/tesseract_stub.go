//go:build !tesseract

package recognizer

import (
	"context"

	"winelens/internal/services"
	"winelens/internal/wine"
)

// TesseractRecognizer is unavailable without the "tesseract" build tag.
type TesseractRecognizer struct{}

// NewTesseract reports that Tesseract support was not compiled in.
func NewTesseract(string) (*TesseractRecognizer, error) {
	return nil, services.Wrap(services.ErrExternalTool, "recognizer", "init tesseract",
		"built without tesseract support; rebuild with -tags tesseract", nil)
}

func (*TesseractRecognizer) Close() error { return nil }

func (*TesseractRecognizer) Recognize(context.Context, []byte) ([]wine.Fragment, error) {
	return nil, services.Wrap(services.ErrExternalTool, "recognizer", "recognize", "tesseract support not compiled in", nil)
}
