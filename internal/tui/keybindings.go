package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hay-kot/morph/internal/core/history"
	"github.com/hay-kot/morph/internal/listmodel"
)

// ActionType identifies the kind of action a keybinding triggers.
type ActionType int

const (
	ActionTypeNone ActionType = iota
	ActionTypeOpen
	ActionTypeHide
	ActionTypeDelete
	ActionTypeDeleteDomain
)

// Action represents a resolved keybinding action ready for execution.
type Action struct {
	Type    ActionType
	Key     string
	Help    string
	Confirm string // Non-empty if confirmation required
	URL     string
	Domain  string
}

// NeedsConfirm returns true if the action requires user confirmation.
func (a Action) NeedsConfirm() bool {
	return a.Confirm != ""
}

// KeyMap holds the browser key bindings.
type KeyMap struct {
	Up           key.Binding
	Down         key.Binding
	Open         key.Binding
	Hide         key.Binding
	Delete       key.Binding
	DeleteDomain key.Binding
	SwitchView   key.Binding
	Quit         key.Binding
}

// DefaultKeyMap returns the default bindings. Printable keys are left to the
// search input.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "ctrl+p"),
			key.WithHelp("↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "ctrl+n"),
			key.WithHelp("↓", "down"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Hide: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "hide"),
		),
		Delete: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "delete"),
		),
		DeleteDomain: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "delete domain"),
		),
		SwitchView: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch view"),
		),
		Quit: key.NewBinding(
			key.WithKeys("esc", "ctrl+c"),
			key.WithHelp("esc", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.Hide, k.Delete, k.SwitchView, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Open},
		{k.Hide, k.Delete, k.DeleteDomain},
		{k.SwitchView, k.Quit},
	}
}

// KeybindingHandler resolves key presses on a history row to actions.
type KeybindingHandler struct {
	keys    KeyMap
	history *listmodel.HistoryModel
}

// NewKeybindingHandler creates a handler acting on the given model.
func NewKeybindingHandler(keys KeyMap, history *listmodel.HistoryModel) *KeybindingHandler {
	return &KeybindingHandler{
		keys:    keys,
		history: history,
	}
}

// Resolve attempts to resolve a key press to an action for the given entry.
func (h *KeybindingHandler) Resolve(msg tea.KeyMsg, entry history.Entry) (Action, bool) {
	action := Action{
		Key:    msg.String(),
		URL:    entry.URL,
		Domain: entry.Domain,
	}

	switch {
	case key.Matches(msg, h.keys.Open):
		action.Type = ActionTypeOpen
		action.Help = h.keys.Open.Help().Desc
	case key.Matches(msg, h.keys.Hide):
		action.Type = ActionTypeHide
		action.Help = h.keys.Hide.Help().Desc
	case key.Matches(msg, h.keys.Delete):
		action.Type = ActionTypeDelete
		action.Help = h.keys.Delete.Help().Desc
		action.Confirm = fmt.Sprintf("Delete %s from history?", entry.URL)
	case key.Matches(msg, h.keys.DeleteDomain):
		if entry.Domain == "" {
			return Action{}, false
		}
		action.Type = ActionTypeDeleteDomain
		action.Help = h.keys.DeleteDomain.Help().Desc
		action.Confirm = fmt.Sprintf("Delete every page of %s from history?", entry.Domain)
	default:
		return Action{}, false
	}

	return action, true
}

// Execute applies the action to the history model. Open actions are handled
// by the caller.
func (h *KeybindingHandler) Execute(ctx context.Context, action Action) error {
	switch action.Type {
	case ActionTypeHide:
		h.history.Hide(ctx, action.URL)
	case ActionTypeDelete:
		h.history.Remove(ctx, action.URL)
	case ActionTypeDeleteDomain:
		h.history.RemoveMatchingDomain(ctx, action.Domain)
	default:
		return fmt.Errorf("unsupported action type %d", action.Type)
	}
	return nil
}
