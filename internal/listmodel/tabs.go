package listmodel

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hay-kot/morph/internal/core/tab"
)

// TabsModel is the list of open tabs. Index 0 is the current tab.
type TabsModel struct {
	Notifier

	log  zerolog.Logger
	tabs []tab.Tab
}

var _ Table[tab.Tab] = (*TabsModel)(nil)

// NewTabsModel creates an empty tab list.
func NewTabsModel(log zerolog.Logger) *TabsModel {
	return &TabsModel{log: log}
}

// Count returns the number of tabs.
func (m *TabsModel) Count() int {
	return len(m.tabs)
}

// Get returns the tab at index i.
func (m *TabsModel) Get(i int) (tab.Tab, bool) {
	if !m.valid(i) {
		return tab.Tab{}, false
	}
	return m.tabs[i], true
}

// Current returns the current tab, false when no tab is open.
func (m *TabsModel) Current() (tab.Tab, bool) {
	if len(m.tabs) == 0 {
		return tab.Tab{}, false
	}
	return m.tabs[0], true
}

// Tabs returns a copy of the tab list.
func (m *TabsModel) Tabs() []tab.Tab {
	return slices.Clone(m.tabs)
}

// IndexOf returns the row of the tab with id, -1 if absent.
func (m *TabsModel) IndexOf(id string) int {
	return slices.IndexFunc(m.tabs, func(t tab.Tab) bool { return t.ID == id })
}

func (m *TabsModel) valid(i int) bool {
	if i < 0 || i >= len(m.tabs) {
		m.log.Debug().Int("index", i).Int("count", len(m.tabs)).Msg("invalid tab index")
		return false
	}
	return true
}

// Add appends t and returns its index. A tab without an ID gets a random one.
// Adding the first tab makes it current.
func (m *TabsModel) Add(t tab.Tab) (int, tab.Tab) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}

	index := len(m.tabs)
	m.tabs = append(m.tabs, t)
	m.Emit(Inserted(index, index))
	m.emitCount(len(m.tabs))
	if index == 0 {
		m.Emit(Event{Kind: EventCurrentChanged})
	}
	return index, t
}

// Remove closes the tab at index i and returns it.
func (m *TabsModel) Remove(i int) (tab.Tab, bool) {
	if !m.valid(i) {
		return tab.Tab{}, false
	}

	t := m.tabs[i]
	m.tabs = slices.Delete(m.tabs, i, i+1)
	m.Emit(Removed(i, i))
	m.emitCount(len(m.tabs))
	if i == 0 {
		m.Emit(Event{Kind: EventCurrentChanged})
	}
	return t, true
}

// SetCurrent moves the tab at index i to the front.
func (m *TabsModel) SetCurrent(i int) {
	if i == 0 || !m.valid(i) {
		return
	}

	t := m.tabs[i]
	m.tabs = slices.Delete(m.tabs, i, i+1)
	m.tabs = slices.Insert(m.tabs, 0, t)
	m.Emit(Moved(i, 0))
	m.Emit(Event{Kind: EventCurrentChanged})
}

// Update applies fn to the tab with id and reports the fields that changed.
func (m *TabsModel) Update(id string, fn func(*tab.Tab)) error {
	i := m.IndexOf(id)
	if i == -1 {
		return fmt.Errorf("tab %q: %w", id, tab.ErrNotFound)
	}

	before := m.tabs[i]
	fn(&m.tabs[i])
	m.tabs[i].ID = before.ID
	after := m.tabs[i]

	var fields []string
	if before.URL != after.URL {
		fields = append(fields, tab.RoleURL.String())
	}
	if before.Title != after.Title {
		fields = append(fields, tab.RoleTitle.String())
	}
	if before.Icon != after.Icon {
		fields = append(fields, tab.RoleIcon.String())
	}
	if len(fields) > 0 {
		m.Emit(Changed(i, fields...))
	}
	return nil
}

// Restore replaces the tab list with the tabs saved in store.
func (m *TabsModel) Restore(ctx context.Context, store tab.Store) error {
	tabs, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load tabs: %w", err)
	}

	if n := len(m.tabs); n > 0 {
		m.tabs = nil
		m.Emit(Removed(0, n-1))
	}

	for _, t := range tabs {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		m.tabs = append(m.tabs, t)
	}
	if len(m.tabs) > 0 {
		m.Emit(Inserted(0, len(m.tabs)-1))
	}
	m.emitCount(len(m.tabs))
	m.Emit(Event{Kind: EventCurrentChanged})
	return nil
}

// Persist saves the tab list to store.
func (m *TabsModel) Persist(ctx context.Context, store tab.Store) error {
	if err := store.Save(ctx, m.tabs); err != nil {
		return fmt.Errorf("save tabs: %w", err)
	}
	return nil
}
