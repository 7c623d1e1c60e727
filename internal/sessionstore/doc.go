// Package sessionstore persists the in-progress scan session and the bounded
// history of finished sessions in SQLite.
//
// The current session lives in a single-row table and is overwritten on every
// accumulation so an interrupted scan resumes intact. Finished sessions are
// appended to session_history, which is trimmed to the configured limit in
// the same transaction, evicting the oldest entries.
//
// The schema carries a version row. A database written by a different schema
// version is wiped and recreated on open; sessions are disposable and are
// never migrated piecemeal.
package sessionstore
