package listmodel

import (
	"context"
	"errors"
	"os"
	"slices"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/hay-kot/morph/internal/core/download"
)

// DownloadsModel is the list of downloads, newest first. Downloads whose file
// is missing when the list is loaded are left out but kept in the store, the
// file may live on removable media that comes back later.
type DownloadsModel struct {
	Notifier

	log     zerolog.Logger
	now     func() time.Time
	store   download.Store
	entries []download.Download
}

var _ Table[download.Download] = (*DownloadsModel)(nil)

// NewDownloadsModel creates an empty model without a store.
func NewDownloadsModel(log zerolog.Logger, opts ...Option) *DownloadsModel {
	o := buildOptions(opts)
	return &DownloadsModel{log: log, now: o.now}
}

// Store returns the current store, nil when detached.
func (m *DownloadsModel) Store() download.Store {
	return m.store
}

// SetSource replaces the store and reloads the list from it.
func (m *DownloadsModel) SetSource(ctx context.Context, store download.Store) {
	if store == m.store {
		return
	}

	if n := len(m.entries); n > 0 {
		m.entries = nil
		m.Emit(Removed(0, n-1))
		m.emitCount(0)
	}

	m.store = store
	if store == nil {
		return
	}

	all, err := store.List(ctx)
	if err != nil {
		m.log.Error().Err(err).Msg("failed to load downloads")
		return
	}

	for _, d := range all {
		if !fileExists(d.Path) {
			m.log.Debug().Str("download_id", d.ID).Str("path", d.Path).Msg("skipping download with missing file")
			continue
		}
		m.entries = append(m.entries, d)
	}

	if len(m.entries) > 0 {
		m.Emit(Inserted(0, len(m.entries)-1))
		m.emitCount(len(m.entries))
	}
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// Count returns the number of downloads.
func (m *DownloadsModel) Count() int {
	return len(m.entries)
}

// Get returns the download at index i.
func (m *DownloadsModel) Get(i int) (download.Download, bool) {
	if i < 0 || i >= len(m.entries) {
		return download.Download{}, false
	}
	return m.entries[i], true
}

// IndexOf returns the row of the download with id, -1 if absent.
func (m *DownloadsModel) IndexOf(id string) int {
	return slices.IndexFunc(m.entries, func(d download.Download) bool { return d.ID == id })
}

// Contains reports whether a download with id is listed.
func (m *DownloadsModel) Contains(id string) bool {
	return m.IndexOf(id) != -1
}

// Add inserts a new download at the top. Incognito downloads are never
// written to the store.
func (m *DownloadsModel) Add(ctx context.Context, id, url, mime string, incognito bool) {
	if id == "" || m.Contains(id) {
		return
	}

	d := download.Download{
		ID:        id,
		URL:       url,
		Mimetype:  mime,
		Incognito: incognito,
		Created:   m.now(),
	}
	m.entries = slices.Insert(m.entries, 0, d)
	m.Emit(Inserted(0, 0))
	m.emitCount(len(m.entries))

	m.persist(ctx, d)
}

// SetPath records where the file of download id was written.
func (m *DownloadsModel) SetPath(ctx context.Context, id, path string) {
	m.update(ctx, id, func(d *download.Download) []download.Role {
		if d.Path == path {
			return nil
		}
		d.Path = path
		return []download.Role{download.RolePath}
	})
}

// SetComplete flags download id as finished. The mimetype is detected again
// from the file content since servers often report a generic one.
func (m *DownloadsModel) SetComplete(ctx context.Context, id string, complete bool) {
	m.update(ctx, id, func(d *download.Download) []download.Role {
		if d.Complete == complete {
			return nil
		}
		d.Complete = complete
		roles := []download.Role{download.RoleComplete}

		if complete && d.Path != "" {
			mt, err := mimetype.DetectFile(d.Path)
			if err != nil {
				m.log.Warn().Err(err).Str("path", d.Path).Msg("failed to detect mimetype")
			} else if mt.String() != d.Mimetype {
				d.Mimetype = mt.String()
				roles = append(roles, download.RoleMimetype)
			}
		}
		return roles
	})
}

// SetPaused flags download id as paused or resumed.
func (m *DownloadsModel) SetPaused(ctx context.Context, id string, paused bool) {
	m.update(ctx, id, func(d *download.Download) []download.Role {
		if d.Paused == paused {
			return nil
		}
		d.Paused = paused
		return []download.Role{download.RolePaused}
	})
}

// SetError records why download id failed.
func (m *DownloadsModel) SetError(ctx context.Context, id, msg string) {
	m.update(ctx, id, func(d *download.Download) []download.Role {
		if d.Error == msg {
			return nil
		}
		d.Error = msg
		return []download.Role{download.RoleError}
	})
}

func (m *DownloadsModel) update(ctx context.Context, id string, fn func(*download.Download) []download.Role) {
	index := m.IndexOf(id)
	if index == -1 {
		m.log.Warn().Str("download_id", id).Msg("unknown download")
		return
	}

	roles := fn(&m.entries[index])
	if len(roles) == 0 {
		return
	}

	fields := make([]string, len(roles))
	for i, r := range roles {
		fields[i] = r.String()
	}
	m.Emit(Changed(index, fields...))

	m.persist(ctx, m.entries[index])
}

func (m *DownloadsModel) persist(ctx context.Context, d download.Download) {
	if m.store == nil || d.Incognito {
		return
	}
	if err := m.store.Save(ctx, d); err != nil {
		m.log.Warn().Err(err).Str("download_id", d.ID).Msg("failed to store download")
	}
}

// Delete removes download id from the list and the store, then deletes its
// file.
func (m *DownloadsModel) Delete(ctx context.Context, id string) {
	index := m.IndexOf(id)
	if index == -1 {
		return
	}

	d := m.entries[index]
	m.entries = slices.Delete(m.entries, index, index+1)
	m.Emit(Removed(index, index))
	m.emitCount(len(m.entries))

	if m.store != nil && !d.Incognito {
		if err := m.store.Delete(ctx, id); err != nil && !errors.Is(err, download.ErrNotFound) {
			m.log.Warn().Err(err).Str("download_id", id).Msg("failed to delete download")
		}
	}

	if d.Path != "" {
		if err := os.Remove(d.Path); err != nil && !os.IsNotExist(err) {
			m.log.Warn().Err(err).Str("path", d.Path).Msg("failed to delete downloaded file")
		}
	}
}
