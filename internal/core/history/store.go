package history

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a history entry is not found.
var ErrNotFound = errors.New("history entry not found")

// Store defines persistence operations for browsing history.
type Store interface {
	// List returns all entries, most recently visited first.
	List(ctx context.Context) ([]Entry, error)
	// Upsert records a visit of entry.URL and returns the stored visit count.
	Upsert(ctx context.Context, entry Entry) (int, error)
	// Delete removes the entry for url.
	Delete(ctx context.Context, url string) error
	// DeleteDomain removes every entry whose domain equals domain.
	DeleteDomain(ctx context.Context, domain string) error
	// SetHidden flags or unflags an entry. Returns ErrNotFound if absent.
	SetHidden(ctx context.Context, url string, hidden bool) error
	// Clear removes all entries.
	Clear(ctx context.Context) error
}
