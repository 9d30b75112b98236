package model

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Dataset is an immutable set of entries. Callers must not modify the
// slice returned by Entries.
type Dataset struct {
	entries  []Entry
	index    map[string]int
	skipped  int
	loadedAt time.Time
}

// NewDataset builds a dataset from entries. Entries with an empty id or an
// id already seen are skipped.
func NewDataset(entries []Entry) *Dataset {
	ds := &Dataset{
		entries:  make([]Entry, 0, len(entries)),
		index:    make(map[string]int, len(entries)),
		loadedAt: time.Now(),
	}
	for _, e := range entries {
		if e.ID == "" {
			ds.skipped++
			continue
		}
		if _, dup := ds.index[e.ID]; dup {
			ds.skipped++
			continue
		}
		ds.index[e.ID] = len(ds.entries)
		ds.entries = append(ds.entries, e)
	}
	return ds
}

// Decode reads a JSON array of formatted leaderboard records.
func Decode(r io.Reader) (*Dataset, error) {
	var entries []Entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decoding leaderboard: %w", err)
	}
	return NewDataset(entries), nil
}

// Encode writes the dataset entries as a JSON array.
func (d *Dataset) Encode(w io.Writer) error {
	entries := d.Entries()
	if entries == nil {
		entries = []Entry{}
	}
	return json.NewEncoder(w).Encode(entries)
}

func (d *Dataset) Entries() []Entry {
	if d == nil {
		return nil
	}
	return d.entries
}

func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// Skipped reports how many input records were dropped while building the
// dataset.
func (d *Dataset) Skipped() int {
	if d == nil {
		return 0
	}
	return d.skipped
}

func (d *Dataset) LoadedAt() time.Time {
	if d == nil {
		return time.Time{}
	}
	return d.loadedAt
}

// Index returns the position of id in Entries.
func (d *Dataset) Index(id string) (int, bool) {
	if d == nil {
		return 0, false
	}
	i, ok := d.index[id]
	return i, ok
}

// Lookup returns the entry with the given id.
func (d *Dataset) Lookup(id string) (*Entry, bool) {
	i, ok := d.Index(id)
	if !ok {
		return nil, false
	}
	return &d.entries[i], true
}
