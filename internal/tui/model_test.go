package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/morph/internal/core/history"
	"github.com/hay-kot/morph/internal/listmodel"
)

const (
	newsURL = "https://news.example.net/"
	docsURL = "https://docs.go.dev/"
	blogURL = "https://blog.go.dev/"
)

func clock() func() time.Time {
	t := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

// newHistory returns news (2 visits), docs (3) and blog (1), most recent
// first.
func newHistory(t *testing.T) *listmodel.HistoryModel {
	t.Helper()
	ctx := context.Background()
	h := listmodel.NewHistoryModel(zerolog.Nop(), listmodel.WithClock(clock()))
	h.Add(ctx, newsURL, "Daily News", "")
	h.Add(ctx, docsURL, "Go documentation", "")
	h.Add(ctx, blogURL, "Go blog", "")
	h.Add(ctx, docsURL, "Go documentation", "")
	h.Add(ctx, docsURL, "Go documentation", "")
	h.Add(ctx, newsURL, "Daily News", "")
	return h
}

func newModel(t *testing.T, h *listmodel.HistoryModel, opts Options) Model {
	t.Helper()
	if opts.Limit == 0 {
		opts.Limit = -1
	}
	m := New(context.Background(), h, opts)
	t.Cleanup(m.Close)
	return m
}

func send(m Model, msgs ...tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m, cmd
}

func press(t tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: t}
}

func typed(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func rowURLs(rows []history.Entry) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.URL
	}
	return out
}

func isQuit(t *testing.T, cmd tea.Cmd) bool {
	t.Helper()
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestModel_RecentView(t *testing.T) {
	m := newModel(t, newHistory(t), Options{})

	assert.Equal(t, ViewRecent, m.ActiveView())
	assert.Equal(t, []string{newsURL, docsURL, blogURL}, rowURLs(m.Rows()))
}

func TestModel_Search(t *testing.T) {
	m := newModel(t, newHistory(t), Options{})

	m, _ = send(m, typed("go"))
	assert.Equal(t, []string{docsURL, blogURL}, rowURLs(m.Rows()))

	m, _ = send(m, typed(" BLOG"))
	assert.Equal(t, []string{blogURL}, rowURLs(m.Rows()))

	m, _ = send(m, typed(" nothing"))
	assert.Empty(t, m.Rows())
	assert.Contains(t, m.View(), "no matching pages")
}

func TestModel_InitialQuery(t *testing.T) {
	m := newModel(t, newHistory(t), Options{Query: "news"})
	assert.Equal(t, []string{newsURL}, rowURLs(m.Rows()))
}

func TestModel_SwitchView(t *testing.T) {
	m := newModel(t, newHistory(t), Options{})

	m, _ = send(m, press(tea.KeyDown), press(tea.KeyTab))
	assert.Equal(t, ViewTopSites, m.ActiveView())
	assert.Equal(t, 0, m.Cursor())
	assert.Equal(t, []string{docsURL, newsURL, blogURL}, rowURLs(m.Rows()))
	assert.Contains(t, m.View(), "3 visits")

	m, _ = send(m, press(tea.KeyTab))
	assert.Equal(t, ViewRecent, m.ActiveView())
}

func TestModel_CursorStaysInRange(t *testing.T) {
	m := newModel(t, newHistory(t), Options{})

	m, _ = send(m, press(tea.KeyUp))
	assert.Equal(t, 0, m.Cursor())

	m, _ = send(m, press(tea.KeyDown), press(tea.KeyDown), press(tea.KeyDown), press(tea.KeyDown))
	assert.Equal(t, 2, m.Cursor())
}

func TestModel_Limit(t *testing.T) {
	m := newModel(t, newHistory(t), Options{Limit: 2})

	assert.Equal(t, []string{newsURL, docsURL}, rowURLs(m.Rows()))
	assert.Contains(t, m.View(), "2 of 3")
}

func TestModel_OpenSelectsAndQuits(t *testing.T) {
	m := newModel(t, newHistory(t), Options{})

	m, cmd := send(m, press(tea.KeyDown), press(tea.KeyEnter))
	assert.Equal(t, docsURL, m.Selected())
	assert.True(t, isQuit(t, cmd))
	assert.Empty(t, m.View())
}

func TestModel_QuitWithoutSelection(t *testing.T) {
	m := newModel(t, newHistory(t), Options{})

	m, cmd := send(m, press(tea.KeyEsc))
	assert.Empty(t, m.Selected())
	assert.True(t, isQuit(t, cmd))
}

func TestModel_Hide(t *testing.T) {
	h := newHistory(t)
	m := newModel(t, h, Options{})

	m, _ = send(m, press(tea.KeyCtrlX))
	require.NoError(t, m.Err())

	assert.Equal(t, []string{docsURL, blogURL}, rowURLs(m.Rows()))
	entry, ok := h.Get(h.IndexOf(newsURL))
	require.True(t, ok)
	assert.True(t, entry.Hidden)

	// hidden pages drop out of top sites too
	m, _ = send(m, press(tea.KeyTab))
	assert.Equal(t, []string{docsURL, blogURL}, rowURLs(m.Rows()))
}

func TestModel_DeleteNeedsConfirmation(t *testing.T) {
	h := newHistory(t)
	m := newModel(t, h, Options{})

	m, _ = send(m, press(tea.KeyCtrlD))
	require.True(t, m.modal.Visible())
	assert.Contains(t, m.View(), newsURL)

	m, _ = send(m, press(tea.KeyEsc))
	assert.False(t, m.modal.Visible())
	assert.True(t, h.Contains(newsURL))

	m, _ = send(m, press(tea.KeyCtrlD), press(tea.KeyRight), press(tea.KeyEnter))
	assert.True(t, h.Contains(newsURL), "cancel button selected")

	m, _ = send(m, press(tea.KeyCtrlD), press(tea.KeyEnter))
	assert.False(t, h.Contains(newsURL))
	assert.Equal(t, []string{docsURL, blogURL}, rowURLs(m.Rows()))
}

func TestModel_DeleteDomain(t *testing.T) {
	h := newHistory(t)
	m := newModel(t, h, Options{})

	m, _ = send(m, press(tea.KeyDown), press(tea.KeyCtrlR), press(tea.KeyEnter))

	assert.Equal(t, []string{newsURL}, rowURLs(m.Rows()))
	assert.Equal(t, 0, m.Cursor())
	assert.Contains(t, m.View(), "go.dev")
}

func TestModel_FollowsHistory(t *testing.T) {
	h := newHistory(t)
	m := newModel(t, h, Options{})

	h.Add(context.Background(), "https://go.dev/play", "Go playground", "")
	assert.Equal(t, "https://go.dev/play", m.Rows()[0].URL)
}

func TestModel_ViewFitsWindow(t *testing.T) {
	m := newModel(t, newHistory(t), Options{})
	m, _ = send(m, tea.WindowSizeMsg{Width: 80, Height: chromeHeight + 2})

	view := m.View()
	assert.Contains(t, view, "Daily News")
	assert.NotContains(t, view, "Go blog")
	assert.Contains(t, view, "Recent")
}

func TestKeybindingHandler_Resolve(t *testing.T) {
	handler := NewKeybindingHandler(DefaultKeyMap(), nil)
	entry := history.Entry{URL: docsURL, Domain: "go.dev"}

	tests := []struct {
		name        string
		msg         tea.KeyMsg
		wantOK      bool
		wantType    ActionType
		wantConfirm bool
	}{
		{name: "enter opens", msg: press(tea.KeyEnter), wantOK: true, wantType: ActionTypeOpen},
		{name: "ctrl+x hides", msg: press(tea.KeyCtrlX), wantOK: true, wantType: ActionTypeHide},
		{name: "ctrl+d deletes", msg: press(tea.KeyCtrlD), wantOK: true, wantType: ActionTypeDelete, wantConfirm: true},
		{name: "ctrl+r deletes domain", msg: press(tea.KeyCtrlR), wantOK: true, wantType: ActionTypeDeleteDomain, wantConfirm: true},
		{name: "letters go to search", msg: typed("d"), wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, ok := handler.Resolve(tt.msg, entry)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.wantType, action.Type)
			assert.Equal(t, tt.wantConfirm, action.NeedsConfirm())
			assert.Equal(t, docsURL, action.URL)
		})
	}

	_, ok := handler.Resolve(press(tea.KeyCtrlR), history.Entry{URL: docsURL})
	assert.False(t, ok, "no domain to delete")
}

func TestModal(t *testing.T) {
	modal := NewModal("Delete", "Delete it?")
	assert.True(t, modal.Visible())
	assert.True(t, modal.ConfirmSelected())

	modal.ToggleSelection()
	assert.False(t, modal.ConfirmSelected())

	out := modal.Render(0, 0)
	assert.Contains(t, out, "Delete it?")
	assert.Contains(t, out, "Cancel")
}
