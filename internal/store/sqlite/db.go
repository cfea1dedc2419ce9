// Package sqlite persists browser history, downloads and cookies in SQLite
// databases.
//
// A store that cannot open its database still satisfies its interface: every
// call returns an error wrapping ErrStorage and listings are empty.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	_ "modernc.org/sqlite"
)

// Memory is the path that selects a private in-memory database.
const Memory = ":memory:"

// ErrStorage is returned by every operation of a store whose database could
// not be opened or prepared.
var ErrStorage = errors.New("storage unavailable")

type column struct {
	name string
	decl string
}

type database struct {
	db   *sql.DB
	path string
	err  error
}

// openDatabase opens path and runs schema. Failures are logged and recorded,
// the returned database then answers every call with ErrStorage.
func openDatabase(path string, log zerolog.Logger, schema func(*sql.DB) error) database {
	d := database{path: normalizePath(path)}

	db, err := open(d.path)
	if err == nil {
		if err = schema(db); err != nil {
			_ = db.Close()
		}
	}

	if err != nil {
		log.Error().Err(err).Str("path", d.path).Msg("failed to open database")
		d.err = fmt.Errorf("%w: %w", ErrStorage, err)
		return d
	}

	d.db = db
	return d
}

func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return Memory
	}
	return path
}

func open(path string) (*sql.DB, error) {
	if path != Memory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// every pooled connection to :memory: would get its own database
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("exec %q: %w", p, err)
		}
	}

	return db, nil
}

func (d *database) conn() (*sql.DB, error) {
	if d.db == nil {
		if d.err == nil {
			return nil, ErrStorage
		}
		return nil, d.err
	}
	return d.db, nil
}

// Path returns the database path, Memory for ephemeral stores.
func (d *database) Path() string {
	return d.path
}

// Err returns the error recorded while opening the database, if any.
func (d *database) Err() error {
	return d.err
}

// Close closes the database connection.
func (d *database) Close() error {
	if d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	if d.err == nil {
		d.err = fmt.Errorf("%w: database closed", ErrStorage)
	}
	return err
}

// ensureColumns adds the columns missing from table. Older databases were
// created before some of the columns existed.
func ensureColumns(db *sql.DB, table string, columns []column) error {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return fmt.Errorf("table info %s: %w", table, err)
	}

	existing := make(map[string]bool)
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notnull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan table info %s: %w", table, err)
		}
		existing[strings.ToLower(name)] = true
	}
	if err := rows.Close(); err != nil {
		return err
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, c := range columns {
		if existing[strings.ToLower(c.name)] {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, c.name, c.decl)
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("add column %s.%s: %w", table, c.name, err)
		}
	}

	return nil
}

// unixSeconds is the DATETIME value written for t: unix seconds with a
// fractional part, so visits within the same second keep their order.
func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

// scanTime converts a DATETIME value read from the driver. Rows written by
// this package hold unix seconds, whole for older rows and fractional since,
// rows filled by a CURRENT_TIMESTAMP default hold text the driver already
// parsed.
func scanTime(v any) time.Time {
	switch t := v.(type) {
	case int64:
		return time.Unix(t, 0)
	case float64:
		sec, frac := math.Modf(t)
		return time.Unix(int64(sec), int64(math.Round(frac*1e9)))
	case time.Time:
		return t
	case string:
		for _, layout := range []string{time.DateTime, time.RFC3339Nano} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed
			}
		}
	case []byte:
		return scanTime(string(t))
	}
	return time.Time{}
}

func withTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
