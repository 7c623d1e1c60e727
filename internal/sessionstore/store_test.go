package sessionstore_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"winelens/internal/sessionstore"
	"winelens/internal/testsupport"
	"winelens/internal/wine"
)

func sessionWith(t *testing.T, names ...string) *wine.Session {
	t.Helper()
	now := time.Date(2026, 3, 14, 19, 30, 0, 0, time.UTC)
	s := wine.NewSession(now, &wine.Location{Label: "Bistro", Latitude: 45.5, Longitude: -122.6})
	for i, name := range names {
		rec := wine.Record{ID: fmt.Sprintf("w%d", i), Producer: name, Name: "Reserve"}
		match := wine.MatchResult{Record: &rec, Confidence: 0.9, Tier: wine.TierExact}
		s.Wines = append(s.Wines, wine.NewRecognized(wine.Candidate{Text: name + " Reserve"}, match, nil, now))
	}
	return s
}

func TestCurrentSessionRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenSessionStore(t, cfg)
	ctx := context.Background()

	got, err := store.LoadCurrent(ctx)
	if err != nil || got != nil {
		t.Fatalf("LoadCurrent on empty store = %+v, %v", got, err)
	}

	session := sessionWith(t, "Ridge", "Krug")
	if err := store.SaveCurrent(ctx, session); err != nil {
		t.Fatalf("SaveCurrent: %v", err)
	}
	session.Wines = session.Wines[:1]
	if err := store.SaveCurrent(ctx, session); err != nil {
		t.Fatalf("SaveCurrent overwrite: %v", err)
	}

	got, err = store.LoadCurrent(ctx)
	if err != nil {
		t.Fatalf("LoadCurrent: %v", err)
	}
	if got.ID != session.ID || len(got.Wines) != 1 || got.Wines[0].WineID != "w0" {
		t.Fatalf("unexpected session %+v", got)
	}
	if got.Location == nil || got.Location.Label != "Bistro" {
		t.Fatalf("location lost: %+v", got.Location)
	}

	if err := store.ClearCurrent(ctx); err != nil {
		t.Fatalf("ClearCurrent: %v", err)
	}
	if got, _ := store.LoadCurrent(ctx); got != nil {
		t.Fatal("expected no session after clear")
	}
}

func TestCurrentSessionSurvivesReopen(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	first, err := sessionstore.Open(cfg, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	session := sessionWith(t, "Opus One")
	if err := first.SaveCurrent(ctx, session); err != nil {
		t.Fatalf("SaveCurrent: %v", err)
	}
	_ = first.Close()

	second := testsupport.MustOpenSessionStore(t, cfg)
	got, err := second.LoadCurrent(ctx)
	if err != nil || got == nil || got.ID != session.ID {
		t.Fatalf("resume failed: %+v, %v", got, err)
	}
}

func TestArchiveTrimsHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Scanning.HistoryLimit = 3
	store := testsupport.MustOpenSessionStore(t, cfg)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		s := sessionWith(t, fmt.Sprintf("Producer %d", i))
		ids = append(ids, s.ID)
		if err := store.Archive(ctx, s, s.StartedAt.Add(time.Hour), nil); err != nil {
			t.Fatalf("Archive %d: %v", i, err)
		}
	}

	count, err := store.HistoryCount(ctx)
	if err != nil || count != 3 {
		t.Fatalf("HistoryCount = %d, %v", count, err)
	}
	history, err := store.History(ctx, 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	want := []string{ids[4], ids[3], ids[2]}
	for i, entry := range history {
		if entry.Session.ID != want[i] {
			t.Fatalf("history[%d] = %s, want %s", i, entry.Session.ID, want[i])
		}
		if entry.EndedAt.IsZero() {
			t.Fatalf("history[%d] missing end time", i)
		}
	}
}

func TestArchiveReplacesCurrent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenSessionStore(t, cfg)
	ctx := context.Background()

	finished := sessionWith(t, "Ridge")
	if err := store.SaveCurrent(ctx, finished); err != nil {
		t.Fatalf("SaveCurrent: %v", err)
	}
	next := wine.NewSession(time.Now(), nil)
	if err := store.Archive(ctx, finished, time.Now(), next); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	got, err := store.LoadCurrent(ctx)
	if err != nil || got == nil || got.ID != next.ID || len(got.Wines) != 0 {
		t.Fatalf("current after archive = %+v, %v", got, err)
	}
	history, _ := store.History(ctx, 10)
	if len(history) != 1 || history[0].Session.ID != finished.ID || len(history[0].Session.Wines) != 1 {
		t.Fatalf("unexpected history %+v", history)
	}

	if err := store.ClearHistory(ctx); err != nil {
		t.Fatalf("ClearHistory: %v", err)
	}
	if n, _ := store.HistoryCount(ctx); n != 0 {
		t.Fatalf("history not cleared: %d", n)
	}
}

func TestSchemaMismatchWipesDatabase(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	store, err := sessionstore.Open(cfg, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.SaveCurrent(ctx, sessionWith(t, "Ridge")); err != nil {
		t.Fatalf("SaveCurrent: %v", err)
	}
	_ = store.Close()

	raw, err := sql.Open("sqlite", cfg.SessionDBPath())
	if err != nil {
		t.Fatalf("open raw: %v", err)
	}
	if _, err := raw.Exec("UPDATE schema_version SET version = 999"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = raw.Close()

	reopened := testsupport.MustOpenSessionStore(t, cfg)
	got, err := reopened.LoadCurrent(ctx)
	if err != nil || got != nil {
		t.Fatalf("expected wiped store, got %+v, %v", got, err)
	}
	if err := reopened.SaveCurrent(ctx, sessionWith(t, "Krug")); err != nil {
		t.Fatalf("store unusable after wipe: %v", err)
	}
}

func TestCorruptCurrentSessionIsDiscarded(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()
	store := testsupport.MustOpenSessionStore(t, cfg)

	raw, err := sql.Open("sqlite", cfg.SessionDBPath())
	if err != nil {
		t.Fatalf("open raw: %v", err)
	}
	defer raw.Close()
	if _, err := raw.Exec(`INSERT INTO current_session (slot, session_id, started_at, updated_at, payload) VALUES (1, 'x', '', '', 'not json')`); err != nil {
		t.Fatalf("seed corrupt row: %v", err)
	}

	got, err := store.LoadCurrent(ctx)
	if err != nil || got != nil {
		t.Fatalf("expected corrupt snapshot to be discarded, got %+v, %v", got, err)
	}
}
