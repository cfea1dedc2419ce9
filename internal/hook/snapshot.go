// Package hook reconciles the webapp click hooks installed by the package
// manager with the copies already processed by the container.
//
// Installed hooks live in one directory as versioned "<app>_<name>_<version>.webapp"
// files. Processed hooks live in another directory, one file per logical key.
// A reconciliation installs new keys, refreshes stale copies and uninstalls
// keys whose package is gone, running the payload directives of each phase.
package hook

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Extension is the file suffix of installed hooks.
const Extension = ".webapp"

// Descriptor identifies one hook file.
type Descriptor struct {
	Key  string // logical key, version stripped
	Name string // file name on disk
	Dir  string // parent directory
}

// Path returns the full path of the hook file.
func (d Descriptor) Path() string {
	return filepath.Join(d.Dir, d.Name)
}

// Snapshot is the set of hooks found in one directory, by logical key.
type Snapshot struct {
	Dir   string
	Hooks map[string]Descriptor
}

// Keys returns the logical keys in lexical order.
func (s Snapshot) Keys() []string {
	keys := make([]string, 0, len(s.Hooks))
	for k := range s.Hooks {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Has reports whether key is present.
func (s Snapshot) Has(key string) bool {
	_, ok := s.Hooks[key]
	return ok
}

// LogicalKey strips the version from an app id. An id of exactly three
// "_"-separated parts loses its last part, anything else is returned as is.
func LogicalKey(appID string) string {
	parts := strings.Split(appID, "_")
	if len(parts) != 3 {
		return appID
	}
	return strings.Join(parts[:2], "_")
}

// ShortAppID drops the last "_" segment of a logical key. It names the
// application's cache and data directories.
func ShortAppID(key string) string {
	i := strings.LastIndex(key, "_")
	if i < 0 {
		return ""
	}
	return key[:i]
}

// completeBaseName returns name without its last extension.
func completeBaseName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// ScanInstalled lists the *.webapp files of dir keyed by LogicalKey of their
// base name. A missing directory is an empty snapshot.
func ScanInstalled(dir string) (Snapshot, error) {
	snap := Snapshot{Dir: dir, Hooks: map[string]Descriptor{}}

	matches, err := doublestar.Glob(os.DirFS(dir), "*"+Extension)
	if err != nil {
		return snap, fmt.Errorf("glob installed hooks: %w", err)
	}

	for _, name := range matches {
		if !isRegular(filepath.Join(dir, name)) {
			continue
		}
		key := LogicalKey(completeBaseName(name))
		snap.Hooks[key] = Descriptor{Key: key, Name: name, Dir: dir}
	}

	return snap, nil
}

// ScanProcessed lists every regular file of dir keyed by its file name.
// A missing directory is an empty snapshot.
func ScanProcessed(dir string) (Snapshot, error) {
	snap := Snapshot{Dir: dir, Hooks: map[string]Descriptor{}}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return snap, nil
		}
		return snap, fmt.Errorf("read processed hooks: %w", err)
	}

	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		snap.Hooks[e.Name()] = Descriptor{Key: e.Name(), Name: e.Name(), Dir: dir}
	}

	return snap, nil
}

func isRegular(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
