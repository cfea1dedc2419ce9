package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hay-kot/morph/internal/core/history"
	"github.com/hay-kot/morph/internal/filter"
	"github.com/hay-kot/morph/internal/listmodel"
)

// searchFields are the entry fields matched by the search box.
var searchFields = []string{"title", "url"}

// Options configures the browser.
type Options struct {
	// Limit caps the rows shown per view, negative means unlimited.
	Limit int
	// Query pre-fills the search box.
	Query string
	Keys  *KeyMap
}

// pane is one view over the history: a base projection, the search applied
// to it, and row limits for both.
type pane struct {
	base    listmodel.Table[history.Entry]
	closer  func()
	search  *filter.TextSearch[history.Entry]
	all     *filter.Limit[history.Entry]
	matches *filter.Limit[history.Entry]
}

func newPane(base listmodel.Table[history.Entry], closer func(), limit int) *pane {
	search := filter.NewHistoryMatches(base)
	search.SetFields(searchFields...)
	return &pane{
		base:    base,
		closer:  closer,
		search:  search,
		all:     filter.NewLimit(base, limit),
		matches: filter.NewLimit[history.Entry](search, limit),
	}
}

// rows returns the table to display: every row without a query, the matches
// otherwise.
func (p *pane) rows() *filter.Limit[history.Entry] {
	if len(p.search.Terms()) == 0 {
		return p.all
	}
	return p.matches
}

func (p *pane) close() {
	p.all.Close()
	p.matches.Close()
	p.search.Close()
	if p.closer != nil {
		p.closer()
	}
}

// Model is the Bubble Tea model of the history browser.
type Model struct {
	ctx     context.Context
	history *listmodel.HistoryModel
	handler *KeybindingHandler
	keys    KeyMap
	help    help.Model
	input   textinput.Model
	panes   map[ViewType]*pane

	activeView ViewType
	cursor     int
	width      int
	height     int
	modal      Modal
	pending    Action
	selected   string
	status     string
	err        error
	quitting   bool
}

// New creates a browser over the given history model.
func New(ctx context.Context, hist *listmodel.HistoryModel, opts Options) Model {
	keys := DefaultKeyMap()
	if opts.Keys != nil {
		keys = *opts.Keys
	}

	visible := filter.NewVisible(hist)
	top := filter.NewTopSites(hist)

	input := textinput.New()
	input.Prompt = "Search: "
	input.PromptStyle = tabActiveStyle
	input.Placeholder = "title or url"
	input.Focus()

	h := help.New()
	h.ShortSeparator = " " + iconDot + " "
	h.Styles.ShortKey = helpStyle.UnsetPaddingLeft()
	h.Styles.ShortDesc = helpStyle.UnsetPaddingLeft()
	h.Styles.ShortSeparator = helpStyle.UnsetPaddingLeft()

	m := Model{
		ctx:     ctx,
		history: hist,
		handler: NewKeybindingHandler(keys, hist),
		keys:    keys,
		help:    h,
		input:   input,
		panes: map[ViewType]*pane{
			ViewRecent:   newPane(visible, visible.Close, opts.Limit),
			ViewTopSites: newPane(top, top.Close, opts.Limit),
		},
		activeView: ViewRecent,
	}

	if opts.Query != "" {
		m.input.SetValue(opts.Query)
		m.setQuery(opts.Query)
	}

	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Close detaches the browser projections from the history model.
func (m Model) Close() {
	for _, p := range m.panes {
		p.close()
	}
}

// Selected returns the URL chosen with the open key, empty when the browser
// was quit.
func (m Model) Selected() string {
	return m.selected
}

// Err returns the last action error.
func (m Model) Err() error {
	return m.err
}

// ActiveView returns the displayed view.
func (m Model) ActiveView() ViewType {
	return m.activeView
}

// Cursor returns the index of the highlighted row.
func (m Model) Cursor() int {
	return m.cursor
}

// Rows returns the rows of the active view.
func (m Model) Rows() []history.Entry {
	table := m.panes[m.activeView].rows()
	rows := make([]history.Entry, 0, table.Count())
	for i := range table.Count() {
		if e, ok := table.Get(i); ok {
			rows = append(rows, e)
		}
	}
	return rows
}

func (m Model) current() (history.Entry, bool) {
	return m.panes[m.activeView].rows().Get(m.cursor)
}

func (m *Model) setQuery(query string) {
	for _, p := range m.panes {
		p.search.SetQuery(query)
	}
	m.cursor = 0
}

func (m *Model) clampCursor() {
	n := m.panes[m.activeView].rows().Count()
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-len(m.input.Prompt)-2, 10)
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if m.modal.Visible() {
			return m.handleModalKey(msg)
		}
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleModalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "left", "right", "tab", "h", "l":
		m.modal.ToggleSelection()
	case "enter":
		if m.modal.ConfirmSelected() {
			m.execute(m.pending)
		}
		m.modal = Modal{}
		m.pending = Action{}
	case "esc", "ctrl+c", "n":
		m.modal = Modal{}
		m.pending = Action{}
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		m.cursor--
		m.clampCursor()
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.cursor++
		m.clampCursor()
		return m, nil
	case key.Matches(msg, m.keys.SwitchView):
		if m.activeView == ViewRecent {
			m.activeView = ViewTopSites
		} else {
			m.activeView = ViewRecent
		}
		m.cursor = 0
		return m, nil
	}

	if entry, ok := m.current(); ok {
		if action, ok := m.handler.Resolve(msg, entry); ok {
			switch {
			case action.Type == ActionTypeOpen:
				m.selected = action.URL
				m.quitting = true
				return m, tea.Quit
			case action.NeedsConfirm():
				m.pending = action
				m.modal = NewModal(action.Help, action.Confirm)
				return m, nil
			default:
				m.execute(action)
				return m, nil
			}
		}
	}

	prev := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != prev {
		m.setQuery(m.input.Value())
	}
	return m, cmd
}

func (m *Model) execute(action Action) {
	if err := m.handler.Execute(m.ctx, action); err != nil {
		m.err = err
		m.status = err.Error()
		return
	}
	m.err = nil
	m.status = action.Help + ": " + action.URL
	if action.Type == ActionTypeDeleteDomain {
		m.status = action.Help + ": " + action.Domain
	}
	m.clampCursor()
}
