// Package tab defines open browser tab types and their session store.
package tab

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a tab is not found.
var ErrNotFound = errors.New("tab not found")

// Role identifies a field of a Tab in change notifications.
type Role int

const (
	RoleURL Role = iota
	RoleTitle
	RoleIcon
)

func (r Role) String() string {
	switch r {
	case RoleURL:
		return "url"
	case RoleTitle:
		return "title"
	case RoleIcon:
		return "icon"
	default:
		return "unknown"
	}
}

// Tab is an open tab. The first tab of a list is the current one.
type Tab struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
	Icon  string `json:"icon,omitempty"`
}

// Store persists the open tabs between runs.
type Store interface {
	// Load returns the saved tabs, current tab first.
	Load(ctx context.Context) ([]Tab, error)
	// Save replaces the saved tabs.
	Save(ctx context.Context, tabs []Tab) error
}
