// Package history defines browsing history domain types and interfaces.
package history

import (
	"strconv"
	"time"
)

// Role identifies a field of an Entry in change notifications and filters.
type Role int

const (
	RoleURL Role = iota
	RoleDomain
	RoleTitle
	RoleIcon
	RoleVisits
	RoleLastVisit
	RoleHidden
)

var roleNames = map[Role]string{
	RoleURL:       "url",
	RoleDomain:    "domain",
	RoleTitle:     "title",
	RoleIcon:      "icon",
	RoleVisits:    "visits",
	RoleLastVisit: "lastVisit",
	RoleHidden:    "hidden",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "unknown"
}

// ParseRole returns the role with the given name.
func ParseRole(name string) (Role, bool) {
	for r, n := range roleNames {
		if n == name {
			return r, true
		}
	}
	return 0, false
}

// Entry is one row of browsing history, keyed by URL.
type Entry struct {
	URL       string    `json:"url"`
	Domain    string    `json:"domain"`
	Title     string    `json:"title"`
	Icon      string    `json:"icon,omitempty"`
	Visits    int       `json:"visits"`
	LastVisit time.Time `json:"last_visit"`
	Hidden    bool      `json:"hidden,omitempty"`
}

// Text returns the textual value of the given field, empty for unknown roles.
func (e Entry) Text(r Role) string {
	switch r {
	case RoleURL:
		return e.URL
	case RoleDomain:
		return e.Domain
	case RoleTitle:
		return e.Title
	case RoleIcon:
		return e.Icon
	case RoleVisits:
		return strconv.Itoa(e.Visits)
	case RoleLastVisit:
		if e.LastVisit.IsZero() {
			return ""
		}
		return e.LastVisit.Format(time.RFC3339)
	case RoleHidden:
		return strconv.FormatBool(e.Hidden)
	default:
		return ""
	}
}

// Field returns the textual value of the named field.
func (e Entry) Field(name string) string {
	r, ok := ParseRole(name)
	if !ok {
		return ""
	}
	return e.Text(r)
}
