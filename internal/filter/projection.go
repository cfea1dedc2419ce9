// Package filter derives read-only projections of list models: text search,
// hidden/timeframe/domain filters, top sites, domain lists and row limits.
//
// Every projection is itself a listmodel.Table, so projections chain. A
// projection re-evaluates on every change of its source and reports an
// EventReset.
package filter

import (
	"slices"

	"github.com/hay-kot/morph/internal/listmodel"
)

// Projection is the ordered subset of a source table accepted by a
// predicate, optionally re-sorted.
type Projection[T any] struct {
	listmodel.Notifier

	source      listmodel.Table[T]
	accept      func(T) bool
	less        func(a, b T) bool
	rows        []int
	unsubscribe func()
}

var _ listmodel.Table[int] = (*Projection[int])(nil)

// NewProjection returns the rows of source accepted by accept, in source
// order. A nil accept keeps every row.
func NewProjection[T any](source listmodel.Table[T], accept func(T) bool) *Projection[T] {
	p := &Projection[T]{accept: accept}
	p.SetSource(source)
	return p
}

// NewSortedProjection is NewProjection with rows ordered by less. Rows that
// compare equal keep their source order.
func NewSortedProjection[T any](source listmodel.Table[T], accept func(T) bool, less func(a, b T) bool) *Projection[T] {
	p := &Projection[T]{accept: accept, less: less}
	p.SetSource(source)
	return p
}

// Source returns the projected table.
func (p *Projection[T]) Source() listmodel.Table[T] {
	return p.source
}

// SetSource projects a different table. Nil empties the projection.
func (p *Projection[T]) SetSource(source listmodel.Table[T]) {
	if p.unsubscribe != nil {
		p.unsubscribe()
		p.unsubscribe = nil
	}

	p.source = source
	if source != nil {
		p.unsubscribe = source.Subscribe(p.onSourceEvent)
	}
	p.Invalidate()
}

// Close detaches the projection from its source.
func (p *Projection[T]) Close() {
	p.SetSource(nil)
}

func (p *Projection[T]) onSourceEvent(e listmodel.Event) {
	if e.Kind == listmodel.EventCountChanged || e.Kind == listmodel.EventCurrentChanged {
		return
	}
	p.Invalidate()
}

// SetPredicate replaces the predicate and re-evaluates.
func (p *Projection[T]) SetPredicate(accept func(T) bool) {
	p.accept = accept
	p.Invalidate()
}

// Invalidate re-evaluates every source row.
func (p *Projection[T]) Invalidate() {
	before := len(p.rows)
	p.rows = p.rows[:0]

	if p.source != nil {
		for i := 0; i < p.source.Count(); i++ {
			row, ok := p.source.Get(i)
			if !ok {
				continue
			}
			if p.accept == nil || p.accept(row) {
				p.rows = append(p.rows, i)
			}
		}

		if p.less != nil {
			slices.SortStableFunc(p.rows, func(a, b int) int {
				ra, _ := p.source.Get(a)
				rb, _ := p.source.Get(b)
				switch {
				case p.less(ra, rb):
					return -1
				case p.less(rb, ra):
					return 1
				default:
					return 0
				}
			})
		}
	}

	p.Emit(listmodel.Event{Kind: listmodel.EventReset})
	if len(p.rows) != before {
		p.Emit(listmodel.Event{Kind: listmodel.EventCountChanged, Count: len(p.rows)})
	}
}

// Count returns the number of accepted rows.
func (p *Projection[T]) Count() int {
	return len(p.rows)
}

// Get returns accepted row i.
func (p *Projection[T]) Get(i int) (T, bool) {
	var zero T
	if i < 0 || i >= len(p.rows) || p.source == nil {
		return zero, false
	}
	return p.source.Get(p.rows[i])
}

// SourceIndex maps row i of the projection to its row in the source, -1
// when out of range.
func (p *Projection[T]) SourceIndex(i int) int {
	if i < 0 || i >= len(p.rows) {
		return -1
	}
	return p.rows[i]
}

// Rows returns every accepted row.
func (p *Projection[T]) Rows() []T {
	out := make([]T, 0, len(p.rows))
	for i := range p.rows {
		if row, ok := p.Get(i); ok {
			out = append(out, row)
		}
	}
	return out
}
