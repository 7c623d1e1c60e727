package recognizer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"winelens/internal/services"
	"winelens/internal/wine"
)

func TestJSONRecognizerAcceptsObjectAndArray(t *testing.T) {
	object := []byte(`{"captured_at":"2026-03-14T19:30:00Z","fragments":[{"text":"Opus One 2018","box":{"x":0.1,"y":0.2,"width":0.4,"height":0.03},"confidence":0.91}]}`)
	array := []byte(`[{"text":"Krug Grande Cuvée","box":{"x":0.1,"y":0.5,"width":0.4,"height":0.03},"confidence":0.88}]`)

	for name, payload := range map[string][]byte{"object": object, "array": array} {
		got, err := JSONRecognizer{}.Recognize(context.Background(), payload)
		if err != nil {
			t.Fatalf("%s: Recognize: %v", name, err)
		}
		if len(got) != 1 || got[0].Text == "" || got[0].Box.Width != 0.4 {
			t.Fatalf("%s: unexpected fragments %+v", name, got)
		}
	}
}

func TestJSONRecognizerRejectsGarbage(t *testing.T) {
	for _, payload := range []string{"", "   ", "{not json", "[1,2"} {
		if _, err := (JSONRecognizer{}).Recognize(context.Background(), []byte(payload)); !errors.Is(err, services.ErrValidation) {
			t.Errorf("payload %q: expected validation error, got %v", payload, err)
		}
	}
}

func TestConfidenceFloorFiltersAndClamps(t *testing.T) {
	backend := Func(func(context.Context, []byte) ([]wine.Fragment, error) {
		return []wine.Fragment{
			{Text: "Ridge Monte Bello", Box: wine.BoundingBox{X: -0.1, Y: 0.9, Width: 0.5, Height: 0.2}, Confidence: 0.8},
			{Text: "smudge", Confidence: 0.3},
			{Text: "   ", Confidence: 0.9},
			{Text: "exactly floor", Confidence: 0.5},
		}, nil
	})
	got, err := WithConfidenceFloor(backend, 0.5).Recognize(context.Background(), nil)
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 fragments, got %+v", got)
	}
	box := got[0].Box
	if box.MinX() < 0 || box.MaxY() > 1 {
		t.Fatalf("box not clamped: %+v", box)
	}
}

func TestConfidenceFloorLeavesBackendSliceIntact(t *testing.T) {
	shared := []wine.Fragment{
		{Text: "smudge", Confidence: 0.2},
		{Text: "  Opus One 2018  ", Box: wine.BoundingBox{X: 0.9, Y: 0.1, Width: 0.4, Height: 0.05}, Confidence: 0.9},
	}
	backend := Func(func(context.Context, []byte) ([]wine.Fragment, error) {
		return shared, nil
	})
	rec := WithConfidenceFloor(backend, 0.5)
	for range 2 {
		got, err := rec.Recognize(context.Background(), nil)
		if err != nil {
			t.Fatalf("Recognize: %v", err)
		}
		if len(got) != 1 || got[0].Text != "Opus One 2018" {
			t.Fatalf("unexpected fragments %+v", got)
		}
	}
	if shared[0].Text != "smudge" || shared[1].Text != "  Opus One 2018  " || shared[1].Box.Width != 0.4 {
		t.Fatalf("backend slice was modified: %+v", shared)
	}
}

func TestConfidenceFloorStopsOnCancelledContext(t *testing.T) {
	called := false
	backend := Func(func(context.Context, []byte) ([]wine.Fragment, error) {
		called = true
		return nil, nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := WithConfidenceFloor(backend, 0).Recognize(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if called {
		t.Fatal("backend should not run on a cancelled context")
	}
}

func TestReadFrameDirSortsJSONFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"frame-002.json", "frame-001.json", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(`[]`), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	files, err := ReadFrameDir(dir)
	if err != nil {
		t.Fatalf("ReadFrameDir: %v", err)
	}
	if len(files) != 2 || filepath.Base(files[0].Path) != "frame-001.json" {
		t.Fatalf("unexpected files %+v", files)
	}
	if _, err := ReadFrameDir(filepath.Join(dir, "missing")); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestFromConfigRejectsUnknownBackend(t *testing.T) {
	if _, _, err := FromConfig(nil, "abacus"); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	rec, closeFn, err := FromConfig(nil, "json")
	if err != nil || rec == nil || closeFn == nil {
		t.Fatalf("json backend = %v, %v", rec, err)
	}
}
