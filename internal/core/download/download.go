// Package download defines download domain types and interfaces.
package download

import "time"

// Role identifies a field of a Download in change notifications.
type Role int

const (
	RoleID Role = iota
	RoleURL
	RolePath
	RoleMimetype
	RoleComplete
	RolePaused
	RoleError
	RoleIncognito
	RoleCreated
)

var roleNames = map[Role]string{
	RoleID:        "downloadId",
	RoleURL:       "url",
	RolePath:      "path",
	RoleMimetype:  "mimetype",
	RoleComplete:  "complete",
	RolePaused:    "paused",
	RoleError:     "error",
	RoleIncognito: "incognito",
	RoleCreated:   "created",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "unknown"
}

// Download is one entry of the downloads list.
type Download struct {
	ID        string    `json:"download_id"`
	URL       string    `json:"url"`
	Path      string    `json:"path"`
	Mimetype  string    `json:"mimetype"`
	Complete  bool      `json:"complete"`
	Paused    bool      `json:"paused"`
	Error     string    `json:"error,omitempty"`
	Incognito bool      `json:"incognito,omitempty"`
	Created   time.Time `json:"created"`
}

// Failed returns true if the download recorded an error.
func (d *Download) Failed() bool {
	return d.Error != ""
}
