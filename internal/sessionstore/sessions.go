package sessionstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"winelens/internal/logging"
	"winelens/internal/services"
	"winelens/internal/wine"
)

const upsertCurrentSQL = `INSERT INTO current_session (slot, session_id, started_at, updated_at, wine_count, payload)
VALUES (1, ?, ?, ?, ?, ?)
ON CONFLICT(slot) DO UPDATE SET
    session_id = excluded.session_id,
    started_at = excluded.started_at,
    updated_at = excluded.updated_at,
    wine_count = excluded.wine_count,
    payload = excluded.payload`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SaveCurrent overwrites the in-progress session snapshot.
func (s *Store) SaveCurrent(ctx context.Context, session *wine.Session) error {
	if session == nil {
		return services.Wrap(services.ErrValidation, "sessionstore", "save current", "session is nil", nil)
	}
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		return writeCurrent(ctx, s.db, session)
	})
}

func writeCurrent(ctx context.Context, db execer, session *wine.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if _, err := db.ExecContext(ctx, upsertCurrentSQL,
		session.ID,
		formatTime(session.StartedAt),
		formatTime(session.UpdatedAt),
		len(session.Wines),
		string(payload),
	); err != nil {
		return fmt.Errorf("write current session: %w", err)
	}
	return nil
}

// LoadCurrent returns the in-progress session, or nil when none is stored.
// An undecodable snapshot is dropped and reported as absent.
func (s *Store) LoadCurrent(ctx context.Context) (*wine.Session, error) {
	ctx = ensureContext(ctx)
	var payload string
	err := s.db.QueryRowContext(ctx, "SELECT payload FROM current_session WHERE slot = 1").Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read current session: %w", err)
	}
	var session wine.Session
	if err := json.Unmarshal([]byte(payload), &session); err != nil {
		logging.WarnWithContext(s.logger, "discarding unreadable session snapshot", "session_snapshot_corrupt",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "no action needed"),
			logging.String(logging.FieldImpact, "a fresh session will be started"))
		if clearErr := s.ClearCurrent(ctx); clearErr != nil {
			return nil, clearErr
		}
		return nil, nil
	}
	if session.Wines == nil {
		session.Wines = []wine.Recognized{}
	}
	return &session, nil
}

// ClearCurrent deletes the in-progress session snapshot.
func (s *Store) ClearCurrent(ctx context.Context) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM current_session"); err != nil {
			return fmt.Errorf("clear current session: %w", err)
		}
		return nil
	})
}

// Archive appends finished to the history, trims the history to its cap,
// and replaces the current snapshot with next (or clears it when next is
// nil), all in one transaction.
func (s *Store) Archive(ctx context.Context, finished *wine.Session, endedAt time.Time, next *wine.Session) error {
	if finished == nil {
		return services.Wrap(services.ErrValidation, "sessionstore", "archive", "session is nil", nil)
	}
	ctx = ensureContext(ctx)
	payload, err := json.Marshal(finished)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin archive tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO session_history (session_id, started_at, ended_at, wine_count, payload) VALUES (?, ?, ?, ?, ?)`,
			finished.ID, formatTime(finished.StartedAt), formatTime(endedAt), len(finished.Wines), string(payload),
		); err != nil {
			return fmt.Errorf("append history: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM session_history WHERE id NOT IN (SELECT id FROM session_history ORDER BY id DESC LIMIT ?)`,
			s.historyLimit,
		); err != nil {
			return fmt.Errorf("trim history: %w", err)
		}
		if next != nil {
			if err := writeCurrent(ctx, tx, next); err != nil {
				return err
			}
		} else if _, err := tx.ExecContext(ctx, "DELETE FROM current_session"); err != nil {
			return fmt.Errorf("clear current session: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit archive: %w", err)
		}
		return nil
	})
}

// History returns up to limit finished sessions, newest first. A limit of
// zero or less returns the whole history.
func (s *Store) History(ctx context.Context, limit int) ([]wine.HistoryEntry, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 {
		limit = s.historyLimit
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT ended_at, payload FROM session_history ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []wine.HistoryEntry
	for rows.Next() {
		var endedAt, payload string
		if err := rows.Scan(&endedAt, &payload); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		var entry wine.HistoryEntry
		if err := json.Unmarshal([]byte(payload), &entry.Session); err != nil {
			s.logger.Warn("skipping unreadable history entry", logging.Error(err))
			continue
		}
		if ts, err := time.Parse(time.RFC3339Nano, endedAt); err == nil {
			entry.EndedAt = ts
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}

// HistoryCount reports the number of finished sessions.
func (s *Store) HistoryCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ensureContext(ctx), "SELECT COUNT(1) FROM session_history").Scan(&n); err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return n, nil
}

// ClearHistory deletes every finished session.
func (s *Store) ClearHistory(ctx context.Context) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM session_history"); err != nil {
			return fmt.Errorf("clear history: %w", err)
		}
		return nil
	})
}
