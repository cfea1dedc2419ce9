package listmodel

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/morph/internal/core/history"
	"github.com/hay-kot/morph/internal/store/sqlite"
)

// tick returns a clock that advances one second per call.
func tick() func() time.Time {
	now := time.Unix(1_700_000_000, 0)
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func newHistoryModel(t *testing.T, path string) (*HistoryModel, *sqlite.HistoryStore) {
	t.Helper()
	store := sqlite.NewHistoryStore(path, zerolog.Nop())
	require.NoError(t, store.Err())
	t.Cleanup(func() { _ = store.Close() })

	m := NewHistoryModel(zerolog.Nop(), WithClock(tick()))
	m.SetSource(context.Background(), store)
	return m, store
}

func urls(m *HistoryModel) []string {
	out := make([]string, 0, m.Count())
	for i := 0; i < m.Count(); i++ {
		e, _ := m.Get(i)
		out = append(out, e.URL)
	}
	return out
}

func TestHistoryModel_AddNewEntry(t *testing.T) {
	m, _ := newHistoryModel(t, sqlite.Memory)
	rec := &Recorder{}
	m.Subscribe(rec.Observe)

	visits := m.Add(context.Background(), "http://example.org/", "Example Domain", "")
	assert.Equal(t, 1, visits)
	assert.Equal(t, 1, m.Count())
	assert.Equal(t, []EventKind{EventInserted}, rec.Kinds())
	assert.Equal(t, Inserted(0, 0), rec.Events[0])

	e, ok := m.Get(0)
	require.True(t, ok)
	assert.Equal(t, "example.org", e.Domain)
	assert.Equal(t, "Example Domain", e.Title)
}

func TestHistoryModel_AddEmptyURL(t *testing.T) {
	m, _ := newHistoryModel(t, sqlite.Memory)
	rec := &Recorder{}
	m.Subscribe(rec.Observe)

	assert.Equal(t, 0, m.Add(context.Background(), "", "title", ""))
	assert.Equal(t, 0, m.Count())
	assert.Empty(t, rec.Events)
}

func TestHistoryModel_AddExistingAtTop(t *testing.T) {
	ctx := context.Background()
	m, _ := newHistoryModel(t, sqlite.Memory)

	m.Add(ctx, "http://example.org", "Example Domain", "")
	rec := &Recorder{}
	m.Subscribe(rec.Observe)

	visits := m.Add(ctx, "http://example.org", "Example Domain", "icon2")
	assert.Equal(t, 2, visits)
	assert.Equal(t, 1, m.Count())

	require.Len(t, rec.Events, 1)
	ev := rec.Events[0]
	assert.Equal(t, EventChanged, ev.Kind)
	assert.Equal(t, 0, ev.First)
	assert.ElementsMatch(t, []string{"visits", "icon", "lastVisit"}, ev.Fields)

	icon, ok := m.Data(0, history.RoleIcon)
	require.True(t, ok)
	assert.Equal(t, "icon2", icon)
}

func TestHistoryModel_AddExistingMovesToFront(t *testing.T) {
	ctx := context.Background()
	m, _ := newHistoryModel(t, sqlite.Memory)

	m.Add(ctx, "http://a.com", "A", "")
	m.Add(ctx, "http://b.com", "B", "")
	m.Add(ctx, "http://c.com", "C", "")
	require.Equal(t, []string{"http://c.com", "http://b.com", "http://a.com"}, urls(m))

	rec := &Recorder{}
	m.Subscribe(rec.Observe)

	visits := m.Add(ctx, "http://a.com", "A2", "")
	assert.Equal(t, 2, visits)
	assert.Equal(t, []string{"http://a.com", "http://c.com", "http://b.com"}, urls(m))
	assert.Equal(t, []EventKind{EventMoved, EventChanged}, rec.Kinds())
	assert.Equal(t, Moved(2, 0), rec.Events[0])
	assert.Contains(t, rec.Events[1].Fields, "title")
}

func TestHistoryModel_MostRecentAlwaysFirst(t *testing.T) {
	ctx := context.Background()
	m, _ := newHistoryModel(t, sqlite.Memory)

	sequence := []string{"a", "b", "a", "c", "b", "b", "d", "a"}
	seen := map[string]bool{}
	for _, key := range sequence {
		url := "http://" + key + ".com"
		before := m.Count()
		m.Add(ctx, url, key, "")

		first, ok := m.Get(0)
		require.True(t, ok)
		assert.Equal(t, url, first.URL)

		if seen[url] {
			assert.Equal(t, before, m.Count())
		} else {
			assert.Equal(t, before+1, m.Count())
		}
		seen[url] = true
	}
}

func TestHistoryModel_GetOutOfRange(t *testing.T) {
	m, _ := newHistoryModel(t, sqlite.Memory)
	m.Add(context.Background(), "http://a.com", "", "")

	for _, i := range []int{-1, 1, 100} {
		_, ok := m.Get(i)
		assert.False(t, ok)
		_, ok = m.Data(i, history.RoleURL)
		assert.False(t, ok)
	}
}

func TestHistoryModel_RemoveThenAdd(t *testing.T) {
	ctx := context.Background()
	m, _ := newHistoryModel(t, sqlite.Memory)

	m.Add(ctx, "http://a.com", "", "")
	m.Add(ctx, "http://a.com", "", "")

	rec := &Recorder{}
	m.Subscribe(rec.Observe)
	m.Remove(ctx, "http://a.com")
	assert.Equal(t, 0, m.Count())
	assert.Equal(t, Removed(0, 0), rec.Events[0])

	assert.Equal(t, 1, m.Add(ctx, "http://a.com", "", ""))
}

func TestHistoryModel_RemoveMatchingDomain(t *testing.T) {
	ctx := context.Background()
	m, store := newHistoryModel(t, sqlite.Memory)

	for _, u := range []string{
		"http://www.example.org/1",
		"http://other.net/",
		"http://example.org/2",
		"http://example.org/3",
		"http://keep.io/",
	} {
		m.Add(ctx, u, "", "")
	}
	// rows: keep.io, example.org/3, example.org/2, other.net, www.example.org/1
	rec := &Recorder{}
	m.Subscribe(rec.Observe)

	m.RemoveMatchingDomain(ctx, "example.org")

	assert.Equal(t, []string{"http://keep.io/", "http://other.net/"}, urls(m))
	assert.Equal(t, []Event{Removed(4, 4), Removed(1, 2)}, filterKinds(rec.Events, EventRemoved))

	entries, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func filterKinds(events []Event, kind EventKind) []Event {
	var out []Event
	for _, e := range events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func TestHistoryModel_HideUnhide(t *testing.T) {
	ctx := context.Background()
	m, store := newHistoryModel(t, sqlite.Memory)
	m.Add(ctx, "http://a.com", "", "")
	m.Add(ctx, "http://b.com", "", "")

	rec := &Recorder{}
	m.Subscribe(rec.Observe)

	m.Hide(ctx, "http://a.com")
	assert.Equal(t, []string{"http://b.com", "http://a.com"}, urls(m))
	require.Len(t, rec.Events, 1)
	assert.Equal(t, Changed(1, "hidden"), rec.Events[0])

	entries, err := store.List(ctx)
	require.NoError(t, err)
	assert.True(t, entries[1].Hidden)

	m.Unhide(ctx, "http://a.com")
	hidden, _ := m.Data(1, history.RoleHidden)
	assert.Equal(t, false, hidden)
}

func TestHistoryModel_ClearAll(t *testing.T) {
	ctx := context.Background()
	m, store := newHistoryModel(t, sqlite.Memory)

	rec := &Recorder{}
	m.Subscribe(rec.Observe)
	m.ClearAll(ctx)
	assert.Empty(t, rec.Events, "clearing an empty model is a no-op")

	m.Add(ctx, "http://a.com", "", "")
	m.Add(ctx, "http://b.com", "", "")
	rec.Reset()

	m.ClearAll(ctx)
	assert.Equal(t, 0, m.Count())
	assert.Equal(t, Removed(0, 1), rec.Events[0])

	entries, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHistoryModel_SetSourceReloads(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.sqlite")

	m, store := newHistoryModel(t, path)
	m.Add(ctx, "http://a.com", "A", "ia")
	m.Add(ctx, "http://b.com", "B", "ib")
	m.Add(ctx, "http://a.com", "A", "ia")

	// same store is a no-op
	rec := &Recorder{}
	m.Subscribe(rec.Observe)
	m.SetSource(ctx, store)
	assert.Empty(t, rec.Events)

	// detach
	m.SetSource(ctx, nil)
	assert.Equal(t, 0, m.Count())
	assert.Equal(t, Removed(0, 1), rec.Events[0])

	reopened := sqlite.NewHistoryStore(path, zerolog.Nop())
	t.Cleanup(func() { _ = reopened.Close() })
	m.SetSource(ctx, reopened)

	assert.Equal(t, []string{"http://a.com", "http://b.com"}, urls(m))
	first, _ := m.Get(0)
	assert.Equal(t, 2, first.Visits)
	assert.Equal(t, "A", first.Title)
	assert.Equal(t, "ia", first.Icon)
}

func TestHistoryModel_ReopenWithWallClock(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.sqlite")

	store := sqlite.NewHistoryStore(path, zerolog.Nop())
	require.NoError(t, store.Err())

	m := NewHistoryModel(zerolog.Nop())
	m.SetSource(ctx, store)
	m.Add(ctx, "http://a.example/", "A", "")
	m.Add(ctx, "http://b.example/", "B", "")
	m.Add(ctx, "http://a.example/", "A", "")
	before := urls(m)
	require.NoError(t, store.Close())

	reopened := sqlite.NewHistoryStore(path, zerolog.Nop())
	t.Cleanup(func() { _ = reopened.Close() })
	m2 := NewHistoryModel(zerolog.Nop())
	m2.SetSource(ctx, reopened)

	assert.Equal(t, []string{"http://a.example/", "http://b.example/"}, before)
	assert.Equal(t, before, urls(m2))
}

func TestHistoryModel_WithoutStore(t *testing.T) {
	ctx := context.Background()
	m := NewHistoryModel(zerolog.Nop(), WithClock(tick()))

	assert.Equal(t, 1, m.Add(ctx, "http://a.com", "", ""))
	assert.Equal(t, 2, m.Add(ctx, "http://a.com", "", ""))
	m.Hide(ctx, "http://a.com")
	m.Remove(ctx, "http://a.com")
	assert.Equal(t, 0, m.Count())
}

type failingStore struct{}

var errBroken = errors.New("broken")

func (failingStore) List(context.Context) ([]history.Entry, error)      { return nil, errBroken }
func (failingStore) Upsert(context.Context, history.Entry) (int, error) { return 0, errBroken }
func (failingStore) Delete(context.Context, string) error               { return errBroken }
func (failingStore) DeleteDomain(context.Context, string) error         { return errBroken }
func (failingStore) SetHidden(context.Context, string, bool) error      { return errBroken }
func (failingStore) Clear(context.Context) error                        { return errBroken }

func TestHistoryModel_StorageFailuresAreNotFatal(t *testing.T) {
	ctx := context.Background()
	m := NewHistoryModel(zerolog.Nop(), WithClock(tick()))
	m.SetSource(ctx, failingStore{})

	assert.Equal(t, 0, m.Count())
	assert.Equal(t, 1, m.Add(ctx, "http://a.com", "", ""))
	assert.Equal(t, 2, m.Add(ctx, "http://a.com", "", ""))
	m.Hide(ctx, "http://a.com")
	m.RemoveMatchingDomain(ctx, "a.com")
	assert.Equal(t, 0, m.Count())
}

func TestHistoryModel_CountNotifications(t *testing.T) {
	ctx := context.Background()
	m, _ := newHistoryModel(t, sqlite.Memory)

	var counts []int
	m.Subscribe(func(e Event) {
		if e.Kind == EventCountChanged {
			counts = append(counts, e.Count)
		}
	})

	m.Add(ctx, "http://a.com", "", "")
	m.Add(ctx, "http://b.com", "", "")
	m.Add(ctx, "http://a.com", "", "")
	m.Remove(ctx, "http://b.com")

	assert.Equal(t, []int{1, 2, 1}, counts)
}
