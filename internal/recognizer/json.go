package recognizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"winelens/internal/services"
	"winelens/internal/wine"
)

// Frame is a captured recognizer output: the fragments seen in one camera
// frame and when it was captured.
type Frame struct {
	CapturedAt time.Time       `json:"captured_at,omitempty"`
	Fragments  []wine.Fragment `json:"fragments"`
}

// JSONRecognizer decodes frames stored as JSON. The payload may be a Frame
// object or a bare fragment array.
type JSONRecognizer struct{}

func (JSONRecognizer) Recognize(ctx context.Context, data []byte) ([]wine.Fragment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	frame, err := DecodeFrame(data)
	if err != nil {
		return nil, err
	}
	return frame.Fragments, nil
}

// DecodeFrame parses a JSON frame dump.
func DecodeFrame(data []byte) (Frame, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Frame{}, services.Wrap(services.ErrValidation, "recognizer", "decode frame", "empty payload", nil)
	}
	if trimmed[0] == '[' {
		var fragments []wine.Fragment
		if err := json.Unmarshal(trimmed, &fragments); err != nil {
			return Frame{}, services.Wrap(services.ErrValidation, "recognizer", "decode frame", "invalid fragment array", err)
		}
		return Frame{Fragments: fragments}, nil
	}
	var frame Frame
	if err := json.Unmarshal(trimmed, &frame); err != nil {
		return Frame{}, services.Wrap(services.ErrValidation, "recognizer", "decode frame", "invalid frame object", err)
	}
	return frame, nil
}

// FrameFile is a frame dump on disk.
type FrameFile struct {
	Path string
	Data []byte
}

// ReadFrameDir returns every *.json file in dir ordered by name.
func ReadFrameDir(dir string) ([]FrameFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "recognizer", "read frames", dir, err)
		}
		return nil, fmt.Errorf("read frame directory: %w", err)
	}
	var files []FrameFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read frame %s: %w", entry.Name(), err)
		}
		files = append(files, FrameFile{Path: path, Data: data})
	}
	slices.SortFunc(files, func(a, b FrameFile) int { return strings.Compare(a.Path, b.Path) })
	return files, nil
}
