package listmodel

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/morph/internal/core/tab"
	"github.com/hay-kot/morph/internal/store/jsonfile"
)

func TestTabsModel(t *testing.T) {
	t.Run("add appends and first tab is current", func(t *testing.T) {
		m := NewTabsModel(zerolog.Nop())
		rec := &Recorder{}
		m.Subscribe(rec.Observe)

		i, first := m.Add(tab.Tab{URL: "http://a.com"})
		assert.Equal(t, 0, i)
		assert.NotEmpty(t, first.ID)

		i, _ = m.Add(tab.Tab{URL: "http://b.com"})
		assert.Equal(t, 1, i)

		current, ok := m.Current()
		require.True(t, ok)
		assert.Equal(t, "http://a.com", current.URL)
		assert.Equal(t, []EventKind{EventInserted, EventCurrentChanged, EventInserted}, rec.Kinds())
	})

	t.Run("set current moves to front", func(t *testing.T) {
		m := NewTabsModel(zerolog.Nop())
		for _, u := range []string{"a", "b", "c"} {
			m.Add(tab.Tab{URL: u})
		}
		rec := &Recorder{}
		m.Subscribe(rec.Observe)

		m.SetCurrent(2)
		m.SetCurrent(0)
		m.SetCurrent(7)

		current, _ := m.Current()
		assert.Equal(t, "c", current.URL)
		second, _ := m.Get(1)
		assert.Equal(t, "a", second.URL)
		assert.Equal(t, []EventKind{EventMoved, EventCurrentChanged}, rec.Kinds())
	})

	t.Run("remove", func(t *testing.T) {
		m := NewTabsModel(zerolog.Nop())
		m.Add(tab.Tab{URL: "a"})
		m.Add(tab.Tab{URL: "b"})

		removed, ok := m.Remove(0)
		require.True(t, ok)
		assert.Equal(t, "a", removed.URL)

		_, ok = m.Remove(5)
		assert.False(t, ok)
		_, ok = m.Get(-1)
		assert.False(t, ok)
		assert.Equal(t, 1, m.Count())
	})

	t.Run("update reports changed fields", func(t *testing.T) {
		m := NewTabsModel(zerolog.Nop())
		_, created := m.Add(tab.Tab{URL: "a"})
		rec := &Recorder{}
		m.Subscribe(rec.Observe)

		require.NoError(t, m.Update(created.ID, func(t *tab.Tab) {
			t.Title = "A"
			t.Icon = "icon"
			t.ID = "overwritten"
		}))
		require.Len(t, rec.Events, 1)
		assert.Equal(t, Changed(0, "title", "icon"), rec.Events[0])

		got, _ := m.Get(0)
		assert.Equal(t, created.ID, got.ID)

		require.ErrorIs(t, m.Update("nope", func(*tab.Tab) {}), tab.ErrNotFound)
	})

	t.Run("persist and restore", func(t *testing.T) {
		ctx := context.Background()
		store := jsonfile.NewTabStore(filepath.Join(t.TempDir(), "session.json"))

		m := NewTabsModel(zerolog.Nop())
		m.Add(tab.Tab{URL: "a"})
		m.Add(tab.Tab{URL: "b"})
		m.SetCurrent(1)
		require.NoError(t, m.Persist(ctx, store))

		restored := NewTabsModel(zerolog.Nop())
		require.NoError(t, restored.Restore(ctx, store))
		assert.Equal(t, m.Tabs(), restored.Tabs())
	})
}
