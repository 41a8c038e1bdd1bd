package eventlog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists the event log to SQLite. It is suitable for
// single-process production use.
//
// The (event_id, lead_id) unique index makes the at-most-once
// guarantee atomic: Append uses INSERT OR IGNORE, so a pair written by
// a concurrent batch is silently skipped rather than duplicated.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore creates a SQLite-backed event log. The path should be
// a file path (e.g., "./eventlog.db") or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS event_log (
			id TEXT NOT NULL PRIMARY KEY,
			event_id TEXT NOT NULL,
			lead_id TEXT NOT NULL,
			campaign_id TEXT NOT NULL,
			fired_at TEXT NOT NULL,
			ip_address TEXT NOT NULL,
			UNIQUE (event_id, lead_id)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_event_log_lead_id
		ON event_log(lead_id)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Append implements Store. The batch is written in one transaction;
// duplicate (event, lead) pairs are ignored by the unique index.
func (s *SQLiteStore) Append(ctx context.Context, entries []Entry) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStoreClosed
	}
	if len(entries) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO event_log (id, event_id, lead_id, campaign_id, fired_at, ip_address)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare append: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, e := range entries {
		res, err := stmt.ExecContext(ctx,
			e.ID, e.EventID, e.LeadID, e.CampaignID,
			e.FiredAt.UTC().Format(time.RFC3339Nano), e.IPAddress)
		if err != nil {
			return 0, fmt.Errorf("append entry: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("append entry: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit append: %w", err)
	}
	return inserted, nil
}

// AppliedEventIDs implements Store.
func (s *SQLiteStore) AppliedEventIDs(ctx context.Context, leadID string) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT event_id FROM event_log WHERE lead_id = ?
	`, leadID)
	if err != nil {
		return nil, fmt.Errorf("query applied events: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]struct{})
	for rows.Next() {
		var eventID string
		if err := rows.Scan(&eventID); err != nil {
			return nil, fmt.Errorf("scan applied event: %w", err)
		}
		applied[eventID] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applied events: %w", err)
	}
	return applied, nil
}

// AppliedEventIDsForLeads implements Store.
func (s *SQLiteStore) AppliedEventIDsForLeads(ctx context.Context, leadIDs []string) (map[string]map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	if len(leadIDs) == 0 {
		return map[string]map[string]struct{}{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(leadIDs)), ",")
	args := make([]any, len(leadIDs))
	for i, id := range leadIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT lead_id, event_id FROM event_log WHERE lead_id IN (`+placeholders+`)
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query applied events: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]map[string]struct{}, len(leadIDs))
	for rows.Next() {
		var leadID, eventID string
		if err := rows.Scan(&leadID, &eventID); err != nil {
			return nil, fmt.Errorf("scan applied event: %w", err)
		}
		if applied[leadID] == nil {
			applied[leadID] = make(map[string]struct{})
		}
		applied[leadID][eventID] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applied events: %w", err)
	}
	return applied, nil
}

// LeadIDsForEvent implements Store.
func (s *SQLiteStore) LeadIDsForEvent(ctx context.Context, eventID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT lead_id FROM event_log WHERE event_id = ? ORDER BY lead_id
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("query event leads: %w", err)
	}
	defer rows.Close()

	var leads []string
	for rows.Next() {
		var leadID string
		if err := rows.Scan(&leadID); err != nil {
			return nil, fmt.Errorf("scan event lead: %w", err)
		}
		leads = append(leads, leadID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event leads: %w", err)
	}
	return leads, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}
