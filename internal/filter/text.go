package filter

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/hay-kot/morph/internal/core/history"
	"github.com/hay-kot/morph/internal/listmodel"
)

// Mode selects how search terms are matched against row fields.
type Mode int

const (
	// AllTermsInOneField accepts a row when a single field contains every term.
	// Used for address bar suggestions.
	AllTermsInOneField Mode = iota
	// EachTermInAnyField accepts a row when every term is contained in some
	// field, not necessarily the same one. Used for history search.
	EachTermInAnyField
)

func (m Mode) String() string {
	switch m {
	case AllTermsInOneField:
		return "all-terms-in-one-field"
	case EachTermInAnyField:
		return "each-term-in-any-field"
	default:
		return "unknown"
	}
}

// Terms splits a free-text query on runs of whitespace.
func Terms(query string) []string {
	return strings.Fields(query)
}

// TextSearch keeps the rows of a table whose fields contain the search
// terms, ignoring case. No terms or no fields means no rows.
type TextSearch[T any] struct {
	*Projection[T]

	mode   Mode
	value  func(row T, field string) string
	fold   cases.Caser
	terms  []string
	folded []string
	fields []string
}

// NewTextSearch filters source with the given mode. value returns the text of
// a named field of a row.
func NewTextSearch[T any](source listmodel.Table[T], mode Mode, value func(row T, field string) string) *TextSearch[T] {
	s := &TextSearch[T]{
		mode:  mode,
		value: value,
		fold:  cases.Fold(),
	}
	s.Projection = NewProjection(source, s.match)
	return s
}

// NewSuggestions returns the address bar suggestion filter over history.
func NewSuggestions(source listmodel.Table[history.Entry]) *TextSearch[history.Entry] {
	return NewTextSearch(source, AllTermsInOneField, history.Entry.Field)
}

// NewHistoryMatches returns the history search filter.
func NewHistoryMatches(source listmodel.Table[history.Entry]) *TextSearch[history.Entry] {
	return NewTextSearch(source, EachTermInAnyField, history.Entry.Field)
}

// Mode returns the matching mode.
func (s *TextSearch[T]) Mode() Mode {
	return s.mode
}

// Terms returns the current search terms.
func (s *TextSearch[T]) Terms() []string {
	return s.terms
}

// Fields returns the searched field names.
func (s *TextSearch[T]) Fields() []string {
	return s.fields
}

// SetQuery sets the terms from a free-text query.
func (s *TextSearch[T]) SetQuery(query string) {
	s.SetTerms(Terms(query))
}

// SetTerms replaces the search terms. Empty terms are dropped.
func (s *TextSearch[T]) SetTerms(terms []string) {
	s.terms = s.terms[:0]
	s.folded = s.folded[:0]
	for _, t := range terms {
		if t == "" {
			continue
		}
		s.terms = append(s.terms, t)
		s.folded = append(s.folded, s.fold.String(t))
	}
	s.Invalidate()
}

// SetFields replaces the searched field names.
func (s *TextSearch[T]) SetFields(fields ...string) {
	s.fields = append(s.fields[:0], fields...)
	s.Invalidate()
}

func (s *TextSearch[T]) match(row T) bool {
	if len(s.folded) == 0 || len(s.fields) == 0 {
		return false
	}

	values := make([]string, len(s.fields))
	for i, f := range s.fields {
		values[i] = s.fold.String(s.value(row, f))
	}

	switch s.mode {
	case AllTermsInOneField:
		for _, v := range values {
			if containsAll(v, s.folded) {
				return true
			}
		}
		return false
	case EachTermInAnyField:
		for _, term := range s.folded {
			if !containedInAny(values, term) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func containsAll(value string, terms []string) bool {
	for _, t := range terms {
		if !strings.Contains(value, t) {
			return false
		}
	}
	return true
}

func containedInAny(values []string, term string) bool {
	for _, v := range values {
		if strings.Contains(v, term) {
			return true
		}
	}
	return false
}
