package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hay-kot/morph/internal/core/domain"
	"github.com/hay-kot/morph/internal/core/history"
)

// HistoryStore implements history.Store on the history table.
type HistoryStore struct {
	database
}

var _ history.Store = (*HistoryStore)(nil)

// NewHistoryStore opens the history database at path. An empty path or Memory
// selects an in-memory database.
func NewHistoryStore(path string, log zerolog.Logger) *HistoryStore {
	return &HistoryStore{database: openDatabase(path, log, historySchema)}
}

func historySchema(db *sql.DB) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS history (
		url       VARCHAR,
		domain    VARCHAR,
		title     VARCHAR,
		icon      VARCHAR,
		visits    INTEGER DEFAULT 1,
		lastVisit DATETIME,
		hidden    INTEGER DEFAULT 0
	);`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create history table: %w", err)
	}

	return ensureColumns(db, "history", []column{
		{name: "domain", decl: "VARCHAR"},
		{name: "hidden", decl: "INTEGER DEFAULT 0"},
	})
}

// List returns all entries, most recently visited first. Entries stored
// without a domain get one computed from their URL.
func (s *HistoryStore) List(ctx context.Context) ([]history.Entry, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT COALESCE(url, ''), COALESCE(domain, ''), COALESCE(title, ''), COALESCE(icon, ''),
		       COALESCE(visits, 1), lastVisit, COALESCE(hidden, 0)
		FROM history
		ORDER BY lastVisit DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []history.Entry
	for rows.Next() {
		var (
			e         history.Entry
			lastVisit any
			hidden    int
		)
		if err := rows.Scan(&e.URL, &e.Domain, &e.Title, &e.Icon, &e.Visits, &lastVisit, &hidden); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		if e.Domain == "" {
			e.Domain = domain.ExtractTopLevelDomainName(e.URL)
		}
		e.LastVisit = scanTime(lastVisit)
		e.Hidden = hidden != 0
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Upsert inserts entry with one visit, or increments the visit count of the
// existing row and refreshes its domain, title, icon and last visit.
func (s *HistoryStore) Upsert(ctx context.Context, entry history.Entry) (int, error) {
	db, err := s.conn()
	if err != nil {
		return 0, err
	}

	if entry.Domain == "" {
		entry.Domain = domain.ExtractTopLevelDomainName(entry.URL)
	}

	visits := 1
	err = withTx(ctx, db, func(tx *sql.Tx) error {
		var current int
		err := tx.QueryRowContext(ctx, `SELECT COALESCE(visits, 0) FROM history WHERE url = ?`, entry.URL).Scan(&current)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			_, err = tx.ExecContext(ctx, `
				INSERT INTO history (url, domain, title, icon, visits, lastVisit, hidden)
				VALUES (?, ?, ?, ?, 1, ?, 0)`,
				entry.URL, entry.Domain, entry.Title, entry.Icon, unixSeconds(entry.LastVisit))
			if err != nil {
				return fmt.Errorf("insert history entry: %w", err)
			}
			return nil
		case err != nil:
			return fmt.Errorf("lookup history entry: %w", err)
		}

		visits = current + 1
		_, err = tx.ExecContext(ctx, `
			UPDATE history SET domain = ?, title = ?, icon = ?, visits = ?, lastVisit = ?
			WHERE url = ?`,
			entry.Domain, entry.Title, entry.Icon, visits, unixSeconds(entry.LastVisit), entry.URL)
		if err != nil {
			return fmt.Errorf("update history entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return visits, nil
}

// Delete removes the entry for url.
func (s *HistoryStore) Delete(ctx context.Context, url string) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, `DELETE FROM history WHERE url = ?`, url); err != nil {
		return fmt.Errorf("delete history entry: %w", err)
	}
	return nil
}

// DeleteDomain removes every entry of domain.
func (s *HistoryStore) DeleteDomain(ctx context.Context, domainName string) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, `DELETE FROM history WHERE domain = ?`, domainName); err != nil {
		return fmt.Errorf("delete history domain: %w", err)
	}
	return nil
}

// SetHidden flags or unflags the entry for url.
func (s *HistoryStore) SetHidden(ctx context.Context, url string, hidden bool) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	value := 0
	if hidden {
		value = 1
	}

	res, err := db.ExecContext(ctx, `UPDATE history SET hidden = ? WHERE url = ?`, value, url)
	if err != nil {
		return fmt.Errorf("update hidden flag: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update hidden flag: %w", err)
	}
	if n == 0 {
		return history.ErrNotFound
	}
	return nil
}

// Clear removes all entries.
func (s *HistoryStore) Clear(ctx context.Context) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, `DELETE FROM history`); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}
