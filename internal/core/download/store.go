package download

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a download is not found.
var ErrNotFound = errors.New("download not found")

// Store defines persistence operations for downloads.
type Store interface {
	// List returns all downloads, newest first, including those whose file is gone.
	List(ctx context.Context) ([]Download, error)
	// Save inserts the download or overwrites the row with the same ID.
	Save(ctx context.Context, d Download) error
	// Delete removes the download with the given ID.
	Delete(ctx context.Context, id string) error
	// Clear removes all downloads.
	Clear(ctx context.Context) error
}
