package matchindex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"winelens/internal/logging"
	"winelens/internal/services"
	"winelens/internal/wine"
)

type snapshot struct {
	SchemaVersion int           `json:"schema_version"`
	SavedAt       time.Time     `json:"saved_at"`
	Records       []wine.Record `json:"records"`
}

// load reads the snapshot. Unreadable or mismatched snapshots are removed so
// the next save starts clean; nothing from them reaches the index.
func (ix *Index) load() error {
	var data []byte
	err := ix.withFileLock(false, func() error {
		var readErr error
		data, readErr = os.ReadFile(ix.path)
		return readErr
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if errors.Is(err, services.ErrTransient) {
			return err
		}
		return services.Wrap(services.ErrTransient, "matchindex", "load snapshot", "read file", err)
	}
	if len(data) == 0 {
		return nil
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		ix.invalidate("snapshot unreadable", logging.Error(err))
		return nil
	}
	if snap.SchemaVersion != ix.schemaVersion {
		ix.invalidate("snapshot schema version mismatch",
			logging.Int("snapshot_version", snap.SchemaVersion),
			logging.Int("expected_version", ix.schemaVersion))
		return nil
	}

	ix.mu.Lock()
	count := ix.upsertLocked(snap.Records)
	ix.mu.Unlock()

	ix.logger.Debug("loaded match index snapshot",
		logging.Int("record_count", count),
		logging.String("path", ix.path),
		logging.Time("saved_at", snap.SavedAt))
	return nil
}

func (ix *Index) invalidate(reason string, attrs ...logging.Attr) {
	attrs = append(attrs,
		logging.String("path", ix.path),
		logging.String(logging.FieldErrorHint, "the cache rebuilds as wines are matched"),
		logging.String(logging.FieldImpact, "cached wines discarded"))
	logging.WarnWithContext(ix.logger, "discarding match index snapshot: "+reason, "match_index_invalidated", attrs...)
	if err := ix.removeSnapshot(); err != nil {
		ix.logger.Warn("failed to remove stale snapshot", logging.Error(err))
	}
}

// Save writes the full index to disk atomically.
func (ix *Index) Save() error {
	if ix.path == "" {
		return nil
	}
	ix.mu.RLock()
	snap := snapshot{
		SchemaVersion: ix.schemaVersion,
		SavedAt:       time.Now().UTC(),
		Records:       make([]wine.Record, 0, len(ix.records)),
	}
	for _, rec := range ix.records {
		snap.Records = append(snap.Records, rec)
	}
	gen := ix.generation
	ix.mu.RUnlock()
	sortRecords(snap.Records)

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrValidation, "matchindex", "save snapshot", "marshal", err)
	}
	if ix.beforeWrite != nil {
		ix.beforeWrite()
	}
	written, err := ix.writeFile(data, gen)
	if err != nil {
		return err
	}
	if !written {
		ix.logger.Debug("skipped snapshot write; index cleared since copy", logging.String("path", ix.path))
		return nil
	}

	ix.mu.Lock()
	if gen > ix.savedGen {
		ix.savedGen = gen
	}
	ix.mu.Unlock()

	ix.logger.Debug("saved match index snapshot",
		logging.Int("record_count", len(snap.Records)),
		logging.String("path", ix.path))
	return nil
}

// writeFile replaces the snapshot with data unless the index was cleared
// after generation gen was copied.
func (ix *Index) writeFile(data []byte, gen uint64) (bool, error) {
	if err := os.MkdirAll(filepath.Dir(ix.path), 0o755); err != nil {
		return false, services.Wrap(services.ErrConfiguration, "matchindex", "save snapshot", "create directory", err)
	}
	written := false
	err := ix.withFileLock(true, func() error {
		ix.mu.RLock()
		stale := ix.clearedGen > gen
		ix.mu.RUnlock()
		if stale {
			return nil
		}
		tmpPath := ix.path + ".tmp"
		if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
			return services.Wrap(services.ErrTransient, "matchindex", "save snapshot", "write temp file", err)
		}
		if err := os.Rename(tmpPath, ix.path); err != nil {
			_ = os.Remove(tmpPath)
			return services.Wrap(services.ErrTransient, "matchindex", "save snapshot", "rename temp file", err)
		}
		written = true
		return nil
	})
	return written, err
}

func (ix *Index) removeSnapshot() error {
	if ix.path == "" {
		return nil
	}
	return ix.withFileLock(true, func() error {
		if err := os.Remove(ix.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return services.Wrap(services.ErrTransient, "matchindex", "clear snapshot", "remove file", err)
		}
		return nil
	})
}

func (ix *Index) withFileLock(exclusive bool, fn func() error) error {
	ix.fileMu.Lock()
	defer ix.fileMu.Unlock()
	lock, mode := ix.fileLock.RLock, "acquire read lock"
	if exclusive {
		lock, mode = ix.fileLock.Lock, "acquire write lock"
	}
	if err := lock(); err != nil {
		return services.Wrap(services.ErrTransient, "matchindex", "lock snapshot", mode, err)
	}
	defer func() { _ = ix.fileLock.Unlock() }()
	return fn()
}

// Dirty reports whether the index has changes not yet saved.
func (ix *Index) Dirty() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.generation != ix.savedGen
}

// Checkpoint saves the index when it has unsaved changes.
func (ix *Index) Checkpoint() error {
	if !ix.Dirty() {
		return nil
	}
	if err := ix.Save(); err != nil {
		return fmt.Errorf("checkpoint match index: %w", err)
	}
	return nil
}

// RunCheckpoints saves the index every interval until ctx ends, then makes a
// final checkpoint.
func (ix *Index) RunCheckpoints(ctx context.Context, interval time.Duration) {
	if ix.path == "" || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if err := ix.Checkpoint(); err != nil {
				ix.logger.Warn("final match index checkpoint failed", logging.Error(err))
			}
			return
		case <-ticker.C:
			if err := ix.Checkpoint(); err != nil {
				logging.WarnWithContext(ix.logger, "match index checkpoint failed", "match_index_checkpoint_failed",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check data_dir permissions and free space"),
					logging.String(logging.FieldImpact, "recent cache entries may be lost on exit"))
			}
		}
	}
}
