package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hay-kot/morph/internal/core/download"
)

// DownloadStore implements download.Store on the downloads table.
type DownloadStore struct {
	database
}

var _ download.Store = (*DownloadStore)(nil)

// NewDownloadStore opens the downloads database at path. An empty path or
// Memory selects an in-memory database.
func NewDownloadStore(path string, log zerolog.Logger) *DownloadStore {
	return &DownloadStore{database: openDatabase(path, log, downloadsSchema)}
}

func downloadsSchema(db *sql.DB) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS downloads (
		downloadId VARCHAR,
		url        VARCHAR,
		path       VARCHAR,
		mimetype   VARCHAR,
		complete   BOOL DEFAULT 0,
		paused     BOOL DEFAULT 0,
		error      VARCHAR,
		created    DATETIME DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create downloads table: %w", err)
	}

	return ensureColumns(db, "downloads", []column{
		{name: "downloadId", decl: "VARCHAR"},
		{name: "complete", decl: "BOOL DEFAULT 0"},
		{name: "paused", decl: "BOOL DEFAULT 0"},
		{name: "error", decl: "VARCHAR"},
	})
}

// List returns all downloads, newest first.
func (s *DownloadStore) List(ctx context.Context) ([]download.Download, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT COALESCE(downloadId, ''), COALESCE(url, ''), COALESCE(path, ''), COALESCE(mimetype, ''),
		       COALESCE(complete, 0), COALESCE(paused, 0), COALESCE(error, ''), created
		FROM downloads
		ORDER BY created DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("query downloads: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var downloads []download.Download
	for rows.Next() {
		var (
			d        download.Download
			complete int
			paused   int
			created  any
		)
		if err := rows.Scan(&d.ID, &d.URL, &d.Path, &d.Mimetype, &complete, &paused, &d.Error, &created); err != nil {
			return nil, fmt.Errorf("scan download row: %w", err)
		}
		d.Complete = complete != 0
		d.Paused = paused != 0
		d.Created = scanTime(created)
		downloads = append(downloads, d)
	}

	return downloads, rows.Err()
}

// Save inserts d or overwrites the row with the same download ID.
func (s *DownloadStore) Save(ctx context.Context, d download.Download) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	if d.Created.IsZero() {
		d.Created = time.Now()
	}

	return withTx(ctx, db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE downloads SET url = ?, path = ?, mimetype = ?, complete = ?, paused = ?, error = ?
			WHERE downloadId = ?`,
			d.URL, d.Path, d.Mimetype, d.Complete, d.Paused, d.Error, d.ID)
		if err != nil {
			return fmt.Errorf("update download: %w", err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update download: %w", err)
		}
		if n > 0 {
			return nil
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO downloads (downloadId, url, path, mimetype, complete, paused, error, created)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			d.ID, d.URL, d.Path, d.Mimetype, d.Complete, d.Paused, d.Error, unixSeconds(d.Created))
		if err != nil {
			return fmt.Errorf("insert download: %w", err)
		}
		return nil
	})
}

// Delete removes the download with the given ID.
func (s *DownloadStore) Delete(ctx context.Context, id string) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	res, err := db.ExecContext(ctx, `DELETE FROM downloads WHERE downloadId = ?`, id)
	if err != nil {
		return fmt.Errorf("delete download: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete download: %w", err)
	}
	if n == 0 {
		return download.ErrNotFound
	}
	return nil
}

// Clear removes all downloads.
func (s *DownloadStore) Clear(ctx context.Context) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, `DELETE FROM downloads`); err != nil {
		return fmt.Errorf("clear downloads: %w", err)
	}
	return nil
}
