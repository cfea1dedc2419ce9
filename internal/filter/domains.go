package filter

import (
	"sort"
	"time"

	"github.com/hay-kot/morph/internal/core/history"
	"github.com/hay-kot/morph/internal/listmodel"
)

// DomainEntry is one row of a DomainList.
type DomainEntry struct {
	Domain    string    `json:"domain"`
	LastVisit time.Time `json:"last_visit"`
	Entries   int       `json:"entries"`
}

// DomainList lists the distinct domains of a history table, sorted by name,
// with the most recent visit of each.
type DomainList struct {
	listmodel.Notifier

	source      listmodel.Table[history.Entry]
	rows        []DomainEntry
	unsubscribe func()
}

var _ listmodel.Table[DomainEntry] = (*DomainList)(nil)

// NewDomainList groups source by domain.
func NewDomainList(source listmodel.Table[history.Entry]) *DomainList {
	d := &DomainList{source: source}
	if source != nil {
		d.unsubscribe = source.Subscribe(func(e listmodel.Event) {
			if e.Kind == listmodel.EventCountChanged || e.Kind == listmodel.EventCurrentChanged {
				return
			}
			d.rebuild()
		})
	}
	d.rebuild()
	return d
}

// Close detaches the list from its source.
func (d *DomainList) Close() {
	if d.unsubscribe != nil {
		d.unsubscribe()
		d.unsubscribe = nil
	}
}

func (d *DomainList) rebuild() {
	byDomain := make(map[string]*DomainEntry)
	if d.source != nil {
		for i := 0; i < d.source.Count(); i++ {
			e, ok := d.source.Get(i)
			if !ok {
				continue
			}
			row, exists := byDomain[e.Domain]
			if !exists {
				row = &DomainEntry{Domain: e.Domain}
				byDomain[e.Domain] = row
			}
			row.Entries++
			if e.LastVisit.After(row.LastVisit) {
				row.LastVisit = e.LastVisit
			}
		}
	}

	before := len(d.rows)
	d.rows = d.rows[:0]
	for _, row := range byDomain {
		d.rows = append(d.rows, *row)
	}
	sort.Slice(d.rows, func(i, j int) bool { return d.rows[i].Domain < d.rows[j].Domain })

	d.Emit(listmodel.Event{Kind: listmodel.EventReset})
	if before != len(d.rows) {
		d.Emit(listmodel.Event{Kind: listmodel.EventCountChanged, Count: len(d.rows)})
	}
}

// Count returns the number of distinct domains.
func (d *DomainList) Count() int {
	return len(d.rows)
}

// Get returns domain row i.
func (d *DomainList) Get(i int) (DomainEntry, bool) {
	if i < 0 || i >= len(d.rows) {
		return DomainEntry{}, false
	}
	return d.rows[i], true
}
