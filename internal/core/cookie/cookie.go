// Package cookie moves browser cookies between stores.
package cookie

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrStale is returned by Move when the source is older than the destination.
var ErrStale = errors.New("source cookies are older than destination")

// Source provides cookies to import, for example from an online accounts
// service. Implementations live outside this module.
type Source interface {
	// LastUpdateTimeStamp returns when the cookies last changed. The zero
	// time means unknown.
	LastUpdateTimeStamp(ctx context.Context) (time.Time, error)
	// GetCookies returns every cookie held by the source.
	GetCookies(ctx context.Context) ([]*http.Cookie, error)
}

// Store is a Source that can also be written.
type Store interface {
	Source
	// SetCookies replaces the stored cookies with cookies.
	SetCookies(ctx context.Context, cookies []*http.Cookie) error
}

// Move copies the cookies of src into dst. When both stores report a
// timestamp and src is older than dst, nothing is copied and ErrStale is
// returned.
func Move(ctx context.Context, dst Store, src Source) error {
	if dst == nil || src == nil {
		return fmt.Errorf("move cookies: missing store")
	}

	remote, err := src.LastUpdateTimeStamp(ctx)
	if err != nil {
		return fmt.Errorf("source timestamp: %w", err)
	}

	local, err := dst.LastUpdateTimeStamp(ctx)
	if err != nil {
		return fmt.Errorf("destination timestamp: %w", err)
	}

	if !remote.IsZero() && !local.IsZero() && remote.Before(local) {
		return ErrStale
	}

	cookies, err := src.GetCookies(ctx)
	if err != nil {
		return fmt.Errorf("get cookies: %w", err)
	}

	if err := dst.SetCookies(ctx, cookies); err != nil {
		return fmt.Errorf("set cookies: %w", err)
	}

	return nil
}

// ID returns the key a cookie is stored under. Two cookies with the same
// name, domain and path replace each other.
func ID(c *http.Cookie) string {
	return c.Domain + "|" + c.Path + "|" + c.Name
}
