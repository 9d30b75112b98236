package store

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/rubiojr/leaderboard/pkg/counts"
	"github.com/rubiojr/leaderboard/pkg/model"
	"github.com/rubiojr/leaderboard/pkg/ranking"
)

type derived struct {
	counts counts.Result
	ranks  map[string]int
}

// CountObserver is told about every counting pass a Deriver runs.
type CountObserver func(entries int, took time.Duration)

// Deriver computes the dataset-derived values (count tables and static
// ranks) and remembers the last dataset it saw. Stores that share a
// Deriver share one counting pass per dataset pointer.
type Deriver struct {
	mu           sync.Mutex
	ds           *model.Dataset
	d            derived
	ok           bool
	computations uint64

	observers map[uint64]CountObserver
	nextID    uint64
}

func NewDeriver() *Deriver {
	return &Deriver{observers: map[uint64]CountObserver{}}
}

// Observe registers fn and returns a function that removes it.
func (d *Deriver) Observe(fn CountObserver) func() {
	d.mu.Lock()
	id := d.nextID
	d.nextID++
	d.observers[id] = fn
	d.mu.Unlock()
	return func() {
		d.mu.Lock()
		delete(d.observers, id)
		d.mu.Unlock()
	}
}

// Computations returns how many counting passes this Deriver ran.
func (d *Deriver) Computations() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.computations
}

// derive is safe on a nil Deriver, which computes without remembering.
func (d *Deriver) derive(ds *model.Dataset) derived {
	if d == nil {
		return compute(ds)
	}

	d.mu.Lock()
	if d.ok && d.ds == ds {
		out := d.d
		d.mu.Unlock()
		return out
	}
	start := time.Now()
	out := compute(ds)
	took := time.Since(start)
	d.ds, d.d, d.ok = ds, out, true
	d.computations++
	observers := make([]CountObserver, 0, len(d.observers))
	for _, id := range slices.Sorted(maps.Keys(d.observers)) {
		observers = append(observers, d.observers[id])
	}
	d.mu.Unlock()

	for _, fn := range observers {
		fn(ds.Len(), took)
	}
	return out
}

func compute(ds *model.Dataset) derived {
	entries := ds.Entries()
	return derived{
		counts: counts.Compute(entries),
		ranks:  ranking.Static(entries),
	}
}
