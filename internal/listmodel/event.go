// Package listmodel keeps ordered in-memory lists of history entries,
// downloads and tabs in sync with their stores and reports every change to
// subscribed observers.
package listmodel

import (
	"fmt"
	"sort"
)

// EventKind identifies the type of a change event.
type EventKind int

const (
	// EventInserted reports rows First..Last inserted.
	EventInserted EventKind = iota
	// EventRemoved reports rows First..Last removed.
	EventRemoved
	// EventChanged reports Fields changed on row First.
	EventChanged
	// EventMoved reports a row moved from From to To.
	EventMoved
	// EventReset reports that every row may have changed.
	EventReset
	// EventCountChanged reports a new Count.
	EventCountChanged
	// EventCurrentChanged reports a new current row (tabs only).
	EventCurrentChanged
)

func (k EventKind) String() string {
	switch k {
	case EventInserted:
		return "inserted"
	case EventRemoved:
		return "removed"
	case EventChanged:
		return "changed"
	case EventMoved:
		return "moved"
	case EventReset:
		return "reset"
	case EventCountChanged:
		return "count"
	case EventCurrentChanged:
		return "current"
	default:
		return "unknown"
	}
}

// Event describes one change of a list.
type Event struct {
	Kind   EventKind
	First  int
	Last   int
	From   int
	To     int
	Count  int
	Fields []string
}

func (e Event) String() string {
	switch e.Kind {
	case EventInserted, EventRemoved:
		return fmt.Sprintf("%s[%d,%d]", e.Kind, e.First, e.Last)
	case EventChanged:
		return fmt.Sprintf("%s[%d]%v", e.Kind, e.First, e.Fields)
	case EventMoved:
		return fmt.Sprintf("%s[%d->%d]", e.Kind, e.From, e.To)
	case EventCountChanged:
		return fmt.Sprintf("%s[%d]", e.Kind, e.Count)
	default:
		return e.Kind.String()
	}
}

// Inserted returns an insertion event for rows first..last.
func Inserted(first, last int) Event {
	return Event{Kind: EventInserted, First: first, Last: last}
}

// Removed returns a removal event for rows first..last.
func Removed(first, last int) Event {
	return Event{Kind: EventRemoved, First: first, Last: last}
}

// Changed returns a change event for row and the named fields.
func Changed(row int, fields ...string) Event {
	return Event{Kind: EventChanged, First: row, Last: row, Fields: fields}
}

// Moved returns a move event.
func Moved(from, to int) Event {
	return Event{Kind: EventMoved, From: from, To: to}
}

// Observer receives change events. It is called synchronously from the
// goroutine that mutated the list.
type Observer func(Event)

// Table is the read side shared by every list and projection.
type Table[T any] interface {
	// Count returns the number of rows.
	Count() int
	// Get returns row i, false outside [0, Count).
	Get(i int) (T, bool)
	// Subscribe registers fn and returns a function that removes it.
	Subscribe(fn Observer) (unsubscribe func())
}

// Notifier fans events out to observers. The zero value is ready to use.
type Notifier struct {
	observers map[int]Observer
	next      int
}

// Subscribe registers fn and returns a function that removes it.
func (n *Notifier) Subscribe(fn Observer) func() {
	if n.observers == nil {
		n.observers = make(map[int]Observer)
	}
	id := n.next
	n.next++
	n.observers[id] = fn
	return func() { delete(n.observers, id) }
}

// Emit delivers e to every observer in subscription order.
func (n *Notifier) Emit(e Event) {
	if len(n.observers) == 0 {
		return
	}
	ids := make([]int, 0, len(n.observers))
	for id := range n.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if fn, ok := n.observers[id]; ok {
			fn(e)
		}
	}
}

func (n *Notifier) emitCount(count int) {
	n.Emit(Event{Kind: EventCountChanged, Count: count})
}

// Recorder collects events, it is handy for tests and debugging.
type Recorder struct {
	Events []Event
}

// Observe appends e.
func (r *Recorder) Observe(e Event) {
	r.Events = append(r.Events, e)
}

// Kinds returns the kinds of the recorded events, ignoring count changes.
func (r *Recorder) Kinds() []EventKind {
	kinds := make([]EventKind, 0, len(r.Events))
	for _, e := range r.Events {
		if e.Kind == EventCountChanged {
			continue
		}
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

// Reset forgets every recorded event.
func (r *Recorder) Reset() {
	r.Events = nil
}
