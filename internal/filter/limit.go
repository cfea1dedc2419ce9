package filter

import "github.com/hay-kot/morph/internal/listmodel"

// Limit exposes at most the first N rows of its source.
type Limit[T any] struct {
	listmodel.Notifier

	source      listmodel.Table[T]
	limit       int
	unsubscribe func()
}

var _ listmodel.Table[int] = (*Limit[int])(nil)

// NewLimit caps source at limit rows. A negative limit means unlimited.
func NewLimit[T any](source listmodel.Table[T], limit int) *Limit[T] {
	l := &Limit[T]{source: source, limit: limit}
	if source != nil {
		l.unsubscribe = source.Subscribe(l.onSourceEvent)
	}
	return l
}

func (l *Limit[T]) onSourceEvent(e listmodel.Event) {
	if e.Kind == listmodel.EventCountChanged || e.Kind == listmodel.EventCurrentChanged {
		return
	}
	l.Emit(listmodel.Event{Kind: listmodel.EventReset})
	l.Emit(listmodel.Event{Kind: listmodel.EventCountChanged, Count: l.Count()})
}

// Close detaches the limit from its source.
func (l *Limit[T]) Close() {
	if l.unsubscribe != nil {
		l.unsubscribe()
		l.unsubscribe = nil
	}
}

// Limit returns the configured limit.
func (l *Limit[T]) Limit() int {
	return l.limit
}

// SetLimit changes the limit.
func (l *Limit[T]) SetLimit(limit int) {
	if limit == l.limit {
		return
	}
	l.limit = limit
	l.Emit(listmodel.Event{Kind: listmodel.EventReset})
	l.Emit(listmodel.Event{Kind: listmodel.EventCountChanged, Count: l.Count()})
}

// UnlimitedCount returns the row count of the source.
func (l *Limit[T]) UnlimitedCount() int {
	if l.source == nil {
		return 0
	}
	return l.source.Count()
}

// Count returns the number of exposed rows.
func (l *Limit[T]) Count() int {
	n := l.UnlimitedCount()
	if l.limit >= 0 && n > l.limit {
		return l.limit
	}
	return n
}

// Get returns row i if it is within the limit.
func (l *Limit[T]) Get(i int) (T, bool) {
	var zero T
	if i < 0 || i >= l.Count() {
		return zero, false
	}
	return l.source.Get(i)
}
