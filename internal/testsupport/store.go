package testsupport

import (
	"testing"

	"winelens/internal/config"
	"winelens/internal/sessionstore"
)

// MustOpenSessionStore opens a sessionstore.Store for tests and registers cleanup.
func MustOpenSessionStore(t testing.TB, cfg *config.Config) *sessionstore.Store {
	t.Helper()

	store, err := sessionstore.Open(cfg, nil)
	if err != nil {
		t.Fatalf("sessionstore.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
