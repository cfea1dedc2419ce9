package hook

import (
	"encoding/json"
	"os"
)

// Phase is a click package life cycle phase.
type Phase string

const (
	PhaseInstall   Phase = "install"
	PhaseUpdate    Phase = "update"
	PhaseUninstall Phase = "uninstall"
)

// Directives are the clean-up actions a hook requests for one phase.
type Directives struct {
	DeleteCookies bool `json:"delete-cookies"`
	DeleteCache   bool `json:"delete-cache"`
}

// Any reports whether at least one directive is set.
func (d Directives) Any() bool {
	return d.DeleteCookies || d.DeleteCache
}

// ParseDirectives reads the directives for phase from a hook payload: a JSON
// array whose first element may hold one object per phase. Malformed input,
// missing sections and non-boolean values all read as false.
func ParseDirectives(data []byte, phase Phase) Directives {
	var doc []json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil || len(doc) == 0 {
		return Directives{}
	}

	var root map[string]json.RawMessage
	if err := json.Unmarshal(doc[0], &root); err != nil {
		return Directives{}
	}

	raw, ok := root[string(phase)]
	if !ok {
		return Directives{}
	}

	var section map[string]any
	if err := json.Unmarshal(raw, &section); err != nil {
		return Directives{}
	}

	var d Directives
	if v, ok := section["delete-cookies"].(bool); ok {
		d.DeleteCookies = v
	}
	if v, ok := section["delete-cache"].(bool); ok {
		d.DeleteCache = v
	}
	return d
}

// ReadDirectives is ParseDirectives over the content of a file. An
// unreadable file reads as no directives.
func ReadDirectives(path string, phase Phase) Directives {
	data, err := os.ReadFile(path)
	if err != nil {
		return Directives{}
	}
	return ParseDirectives(data, phase)
}
