package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/hay-kot/morph/internal/core/cookie"
)

// CookieStore implements cookie.Store on a cookies table holding one
// Set-Cookie line per cookie.
type CookieStore struct {
	database
	log zerolog.Logger
}

var _ cookie.Store = (*CookieStore)(nil)

// NewCookieStore opens the cookie database at path.
func NewCookieStore(path string, log zerolog.Logger) *CookieStore {
	return &CookieStore{
		database: openDatabase(path, log, cookiesSchema),
		log:      log,
	}
}

func cookiesSchema(db *sql.DB) error {
	const schema = `CREATE TABLE IF NOT EXISTS cookies (cookieId VARCHAR PRIMARY KEY, cookie BLOB);`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create cookies table: %w", err)
	}
	return nil
}

// LastUpdateTimeStamp returns the modification time of the database file.
// In-memory stores report the zero time.
func (s *CookieStore) LastUpdateTimeStamp(_ context.Context) (time.Time, error) {
	if s.path == Memory {
		return time.Time{}, nil
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("stat cookie database: %w", err)
	}
	return info.ModTime(), nil
}

// GetCookies returns every stored cookie. Rows that no longer parse are
// skipped.
func (s *CookieStore) GetCookies(ctx context.Context) ([]*http.Cookie, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT cookieId, cookie FROM cookies ORDER BY cookieId`)
	if err != nil {
		return nil, fmt.Errorf("query cookies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var cookies []*http.Cookie
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan cookie row: %w", err)
		}

		c, err := http.ParseSetCookie(string(raw))
		if err != nil {
			s.log.Warn().Err(err).Str("cookie_id", id).Msg("skipping unparsable cookie")
			continue
		}
		cookies = append(cookies, c)
	}

	return cookies, rows.Err()
}

// SetCookies replaces the stored cookies with cookies.
func (s *CookieStore) SetCookies(ctx context.Context, cookies []*http.Cookie) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	return withTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM cookies`); err != nil {
			return fmt.Errorf("delete cookies: %w", err)
		}

		for _, c := range cookies {
			line := c.String()
			if line == "" {
				s.log.Warn().Str("name", c.Name).Msg("skipping invalid cookie")
				continue
			}
			_, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO cookies (cookieId, cookie) VALUES (?, ?)`,
				cookie.ID(c), []byte(line))
			if err != nil {
				return fmt.Errorf("insert cookie %q: %w", c.Name, err)
			}
		}
		return nil
	})
}
