package filter

import (
	"time"

	"github.com/hay-kot/morph/internal/core/history"
	"github.com/hay-kot/morph/internal/listmodel"
)

// NewVisible drops hidden entries.
func NewVisible(source listmodel.Table[history.Entry]) *Projection[history.Entry] {
	return NewProjection(source, func(e history.Entry) bool { return !e.Hidden })
}

// NewDomain keeps the entries of one domain. An empty domain keeps all.
func NewDomain(source listmodel.Table[history.Entry], domain string) *Projection[history.Entry] {
	return NewProjection(source, func(e history.Entry) bool {
		return domain == "" || e.Domain == domain
	})
}

// NewTopSites orders non-hidden entries by visit count, most visited first.
// Entries with equal counts keep their recency order.
func NewTopSites(source listmodel.Table[history.Entry]) *Projection[history.Entry] {
	return NewSortedProjection(source,
		func(e history.Entry) bool { return !e.Hidden },
		func(a, b history.Entry) bool { return a.Visits > b.Visits },
	)
}

// Timeframe keeps the entries last visited within [Start, End]. A zero bound
// is open.
type Timeframe struct {
	*Projection[history.Entry]

	start time.Time
	end   time.Time
}

// NewTimeframe returns an unbounded timeframe filter.
func NewTimeframe(source listmodel.Table[history.Entry]) *Timeframe {
	tf := &Timeframe{}
	tf.Projection = NewProjection(source, tf.match)
	return tf
}

// SetRange replaces both bounds.
func (tf *Timeframe) SetRange(start, end time.Time) {
	tf.start = start
	tf.end = end
	tf.Invalidate()
}

// Start returns the lower bound.
func (tf *Timeframe) Start() time.Time { return tf.start }

// End returns the upper bound.
func (tf *Timeframe) End() time.Time { return tf.end }

func (tf *Timeframe) match(e history.Entry) bool {
	if !tf.start.IsZero() && e.LastVisit.Before(tf.start) {
		return false
	}
	if !tf.end.IsZero() && e.LastVisit.After(tf.end) {
		return false
	}
	return true
}
