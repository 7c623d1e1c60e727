package sessionstore

import (
	"context"
	_ "embed"
	"fmt"

	"winelens/internal/logging"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; older databases are wiped on open.
const schemaVersion = 1

var managedTables = []string{"schema_version", "current_session", "session_history"}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		version = -1
	}
	if version == schemaVersion {
		return nil
	}

	logging.WarnWithContext(s.logger, "session database schema mismatch; wiping", "session_store_schema_reset",
		logging.Int("database_version", version),
		logging.Int("expected_version", schemaVersion),
		logging.String("path", s.path),
		logging.String(logging.FieldErrorHint, "no action needed"),
		logging.String(logging.FieldImpact, "the interrupted session and session history were discarded"))
	if err := s.dropSchema(ctx); err != nil {
		return err
	}
	return s.createSchema(ctx)
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

func (s *Store) dropSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin drop tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range managedTables {
		if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit drop: %w", err)
	}
	return nil
}
