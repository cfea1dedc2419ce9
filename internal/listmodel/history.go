package listmodel

import (
	"context"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/hay-kot/morph/internal/core/domain"
	"github.com/hay-kot/morph/internal/core/history"
)

// Option configures a model.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now as the source of visit and creation times.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// HistoryModel is the ordered list of visited pages, most recent first.
//
// Storage failures are logged and never abort an operation: the in-memory
// list stays authoritative for the current process.
type HistoryModel struct {
	Notifier

	log     zerolog.Logger
	now     func() time.Time
	store   history.Store
	entries []history.Entry
	byURL   map[string]struct{}
}

var _ Table[history.Entry] = (*HistoryModel)(nil)

// NewHistoryModel creates an empty model without a store.
func NewHistoryModel(log zerolog.Logger, opts ...Option) *HistoryModel {
	o := buildOptions(opts)
	return &HistoryModel{
		log:   log,
		now:   o.now,
		byURL: make(map[string]struct{}),
	}
}

// Store returns the current store, nil when detached.
func (m *HistoryModel) Store() history.Store {
	return m.store
}

// SetSource replaces the store and reloads the list from it. Passing the
// current store is a no-op, passing nil detaches the model and empties it.
func (m *HistoryModel) SetSource(ctx context.Context, store history.Store) {
	if store == m.store {
		return
	}

	m.clearRows()
	m.store = store
	if store == nil {
		return
	}

	entries, err := store.List(ctx)
	if err != nil {
		m.log.Error().Err(err).Msg("failed to load history")
		return
	}

	for _, e := range entries {
		if _, dup := m.byURL[e.URL]; dup || e.URL == "" {
			continue
		}
		m.entries = append(m.entries, e)
		m.byURL[e.URL] = struct{}{}
	}

	if len(m.entries) > 0 {
		m.Emit(Inserted(0, len(m.entries)-1))
		m.emitCount(len(m.entries))
	}
}

func (m *HistoryModel) clearRows() {
	n := len(m.entries)
	m.entries = nil
	m.byURL = make(map[string]struct{})
	if n > 0 {
		m.Emit(Removed(0, n-1))
		m.emitCount(0)
	}
}

// Count returns the number of entries.
func (m *HistoryModel) Count() int {
	return len(m.entries)
}

// Get returns the entry at index i.
func (m *HistoryModel) Get(i int) (history.Entry, bool) {
	if i < 0 || i >= len(m.entries) {
		return history.Entry{}, false
	}
	return m.entries[i], true
}

// Data returns one field of the entry at index i.
func (m *HistoryModel) Data(i int, role history.Role) (any, bool) {
	e, ok := m.Get(i)
	if !ok {
		return nil, false
	}

	switch role {
	case history.RoleURL:
		return e.URL, true
	case history.RoleDomain:
		return e.Domain, true
	case history.RoleTitle:
		return e.Title, true
	case history.RoleIcon:
		return e.Icon, true
	case history.RoleVisits:
		return e.Visits, true
	case history.RoleLastVisit:
		return e.LastVisit, true
	case history.RoleHidden:
		return e.Hidden, true
	default:
		return nil, false
	}
}

// Contains reports whether url is in the list.
func (m *HistoryModel) Contains(url string) bool {
	_, ok := m.byURL[url]
	return ok
}

// IndexOf returns the row of url, -1 if absent.
func (m *HistoryModel) IndexOf(url string) int {
	if !m.Contains(url) {
		return -1
	}
	return slices.IndexFunc(m.entries, func(e history.Entry) bool { return e.URL == url })
}

// Add records a visit of url and returns its visit count. A new URL is
// inserted at the top, a known URL is moved to the top with its title and
// icon refreshed. An empty url is ignored and 0 returned.
func (m *HistoryModel) Add(ctx context.Context, url, title, icon string) int {
	if url == "" {
		return 0
	}

	now := m.now()
	index := m.IndexOf(url)

	if index == -1 {
		entry := history.Entry{
			URL:       url,
			Domain:    domain.ExtractTopLevelDomainName(url),
			Title:     title,
			Icon:      icon,
			Visits:    1,
			LastVisit: now,
		}
		m.entries = slices.Insert(m.entries, 0, entry)
		m.byURL[url] = struct{}{}
		m.Emit(Inserted(0, 0))
		m.emitCount(len(m.entries))

		m.persist(ctx, &m.entries[0])
		return m.entries[0].Visits
	}

	entry := m.entries[index]
	if index > 0 {
		m.entries = slices.Delete(m.entries, index, index+1)
		m.entries = slices.Insert(m.entries, 0, entry)
		m.Emit(Moved(index, 0))
	}

	fields := []string{history.RoleVisits.String()}
	if title != entry.Title {
		entry.Title = title
		fields = append(fields, history.RoleTitle.String())
	}
	if icon != entry.Icon {
		entry.Icon = icon
		fields = append(fields, history.RoleIcon.String())
	}
	entry.Visits++
	if !now.Equal(entry.LastVisit) {
		entry.LastVisit = now
		fields = append(fields, history.RoleLastVisit.String())
	}
	m.entries[0] = entry

	m.persist(ctx, &m.entries[0])
	m.Emit(Changed(0, fields...))
	return m.entries[0].Visits
}

// persist writes entry to the store. The stored visit count wins when the
// store answers.
func (m *HistoryModel) persist(ctx context.Context, entry *history.Entry) {
	if m.store == nil {
		return
	}

	visits, err := m.store.Upsert(ctx, *entry)
	if err != nil {
		m.log.Warn().Err(err).Str("url", entry.URL).Msg("failed to store history entry")
		return
	}
	entry.Visits = visits
}

// Remove deletes the entry for url.
func (m *HistoryModel) Remove(ctx context.Context, url string) {
	index := m.IndexOf(url)
	if index == -1 {
		return
	}

	m.entries = slices.Delete(m.entries, index, index+1)
	delete(m.byURL, url)
	m.Emit(Removed(index, index))
	m.emitCount(len(m.entries))

	if m.store != nil {
		if err := m.store.Delete(ctx, url); err != nil {
			m.log.Warn().Err(err).Str("url", url).Msg("failed to delete history entry")
		}
	}
}

// RemoveMatchingDomain deletes every entry of domainName. Each contiguous
// run of matching rows is reported as one removal, last run first so that
// the reported indexes stay valid.
func (m *HistoryModel) RemoveMatchingDomain(ctx context.Context, domainName string) {
	removed := false

	for i := len(m.entries) - 1; i >= 0; {
		if m.entries[i].Domain != domainName {
			i--
			continue
		}

		last := i
		for i >= 0 && m.entries[i].Domain == domainName {
			delete(m.byURL, m.entries[i].URL)
			i--
		}
		first := i + 1

		m.entries = slices.Delete(m.entries, first, last+1)
		m.Emit(Removed(first, last))
		removed = true
	}

	if !removed {
		return
	}
	m.emitCount(len(m.entries))

	if m.store != nil {
		if err := m.store.DeleteDomain(ctx, domainName); err != nil {
			m.log.Warn().Err(err).Str("domain", domainName).Msg("failed to delete history domain")
		}
	}
}

// Hide flags the entry for url as hidden without moving it.
func (m *HistoryModel) Hide(ctx context.Context, url string) {
	m.setHidden(ctx, url, true)
}

// Unhide clears the hidden flag of the entry for url.
func (m *HistoryModel) Unhide(ctx context.Context, url string) {
	m.setHidden(ctx, url, false)
}

func (m *HistoryModel) setHidden(ctx context.Context, url string, hidden bool) {
	index := m.IndexOf(url)
	if index == -1 || m.entries[index].Hidden == hidden {
		return
	}

	m.entries[index].Hidden = hidden
	m.Emit(Changed(index, history.RoleHidden.String()))

	if m.store != nil {
		if err := m.store.SetHidden(ctx, url, hidden); err != nil {
			m.log.Warn().Err(err).Str("url", url).Bool("hidden", hidden).Msg("failed to store hidden flag")
		}
	}
}

// ClearAll removes every entry. An empty model is left untouched.
func (m *HistoryModel) ClearAll(ctx context.Context) {
	if len(m.entries) == 0 {
		return
	}

	m.clearRows()

	if m.store != nil {
		if err := m.store.Clear(ctx); err != nil {
			m.log.Warn().Err(err).Msg("failed to clear history")
		}
	}
}
