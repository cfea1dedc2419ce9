// Package intent parses Android style intent URIs and runs the per-scheme
// JavaScript filters a web application ships to rewrite custom scheme
// navigations.
package intent

import (
	"errors"
	"net/url"
	"strings"
)

// Scheme is the URI scheme of intent URIs.
const Scheme = "intent"

const (
	fragmentStart = "Intent"
	fragmentEnd   = ";end"
)

// ErrInvalidURI is returned for URIs that are not usable intents.
var ErrInvalidURI = errors.New("invalid intent uri")

// Description is the decoded form of
//
//	intent://[host]/[path]#Intent;component=...;scheme=...;category=...;action=...;package=...;end
type Description struct {
	Scheme    string `json:"scheme"`
	Package   string `json:"package"`
	URIPath   string `json:"uri"`
	Host      string `json:"host"`
	Action    string `json:"action"`
	Component string `json:"component"`
	Category  string `json:"category"`
}

// Valid reports whether the intent names a path or a package.
func (d Description) Valid() bool {
	return d.URIPath != "" || d.Package != ""
}

// Parse decodes raw. Anything that is not an intent URI yields the zero
// Description.
func Parse(raw string) Description {
	u, err := url.Parse(raw)
	if err != nil {
		return Description{}
	}
	return FromURL(u)
}

// ParseValid is Parse returning ErrInvalidURI for invalid intents.
func ParseValid(raw string) (Description, error) {
	d := Parse(raw)
	if !d.Valid() {
		return d, ErrInvalidURI
	}
	return d, nil
}

// FromURL decodes an already parsed URL.
func FromURL(u *url.URL) Description {
	var d Description
	if u.Scheme != Scheme ||
		!strings.HasPrefix(u.Fragment, fragmentStart) ||
		!strings.HasSuffix(u.Fragment, fragmentEnd) {
		return d
	}

	d.Host = strings.Trim(u.Hostname(), "/")

	// the path keeps its slashes unless a query follows it
	path := u.Path
	if u.RawQuery != "" || u.ForceQuery {
		path = strings.Trim(path+"?"+u.RawQuery, "/")
	}
	d.URIPath = path

	for _, part := range strings.Split(u.Fragment, ";") {
		switch {
		case strings.HasPrefix(part, "package="):
			d.Package = value(part, "package=")
		case strings.HasPrefix(part, "action="):
			d.Action = value(part, "action=")
		case strings.HasPrefix(part, "category="):
			d.Category = value(part, "category=")
		case strings.HasPrefix(part, "component="):
			d.Component = value(part, "component=")
		case strings.HasPrefix(part, "scheme="):
			d.Scheme = value(part, "scheme=")
		}
	}

	return d
}

// value returns what follows prefix in part, up to a repeated prefix.
func value(part, prefix string) string {
	v := strings.TrimPrefix(part, prefix)
	if i := strings.Index(v, prefix); i >= 0 {
		v = v[:i]
	}
	return v
}
