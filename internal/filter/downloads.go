package filter

import (
	"fmt"
	"regexp"

	"github.com/hay-kot/morph/internal/core/download"
	"github.com/hay-kot/morph/internal/listmodel"
)

// Mimetype keeps the downloads whose mimetype matches a regular expression.
// An empty pattern keeps every download.
type Mimetype struct {
	*Projection[download.Download]

	pattern string
	re      *regexp.Regexp
}

// NewMimetype returns a filter that keeps every download.
func NewMimetype(source listmodel.Table[download.Download]) *Mimetype {
	m := &Mimetype{}
	m.Projection = NewProjection(source, m.match)
	return m
}

// Pattern returns the current expression.
func (m *Mimetype) Pattern() string {
	return m.pattern
}

// SetPattern replaces the expression. An invalid expression leaves the
// filter unchanged.
func (m *Mimetype) SetPattern(pattern string) error {
	var re *regexp.Regexp
	if pattern != "" {
		compiled, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("mimetype pattern: %w", err)
		}
		re = compiled
	}

	m.pattern = pattern
	m.re = re
	m.Invalidate()
	return nil
}

func (m *Mimetype) match(d download.Download) bool {
	return m.re == nil || m.re.MatchString(d.Mimetype)
}
