// Package counts computes the category count tables shown next to each
// filter option.
package counts

import (
	"github.com/rubiojr/leaderboard/pkg/filter"
	"github.com/rubiojr/leaderboard/pkg/model"
)

// Bucket is a half-open parameter bucket used by the count tables.
type Bucket struct {
	Name string
	Min  float64
	Max  float64
}

var Buckets = []Bucket{
	{Name: "edge", Min: 0, Max: 3},
	{Name: "small", Min: 3, Max: 7},
	{Name: "medium", Min: 7, Max: 65},
	{Name: "large", Min: 65, Max: 141},
}

// Table holds per-category counts for one pass over a dataset.
type Table struct {
	ModelTypes           map[string]int `json:"modelTypes"`
	Precisions           map[string]int `json:"precisions"`
	MaintainersHighlight int            `json:"maintainersHighlight"`
	MixtureOfExperts     int            `json:"mixtureOfExperts"`
	Flagged              int            `json:"flagged"`
	Merged               int            `json:"merged"`
	// NotOnHub counts entries that are available on the hub.
	NotOnHub        int            `json:"notOnHub"`
	ParameterRanges map[string]int `json:"parameterRanges"`
}

func newTable() Table {
	t := Table{
		ModelTypes:      make(map[string]int, len(model.TypeOrder)),
		Precisions:      make(map[string]int, len(filter.DefaultPrecisions)),
		ParameterRanges: make(map[string]int, len(Buckets)),
	}
	for _, k := range model.TypeOrder {
		t.ModelTypes[k] = 0
	}
	for _, p := range filter.DefaultPrecisions {
		t.Precisions[p] = 0
	}
	for _, b := range Buckets {
		t.ParameterRanges[b.Name] = 0
	}
	return t
}

func (t *Table) add(e *model.Entry) {
	if info, ok := model.TypeOf(e.Model.Type); ok {
		t.ModelTypes[info.Key]++
	}
	if e.Model.Precision != "" {
		t.Precisions[e.Model.Precision]++
	}
	f := e.Features
	if f.IsHighlightedByMaintainer {
		t.MaintainersHighlight++
	}
	if f.IsMoE {
		t.MixtureOfExperts++
	}
	if f.IsFlagged {
		t.Flagged++
	}
	if f.IsMerged {
		t.Merged++
	}
	if !f.IsNotAvailableOnHub {
		t.NotOnHub++
	}
	if p := e.Params(); p.Valid() {
		v := float64(p)
		for _, b := range Buckets {
			if v >= b.Min && v < b.Max {
				t.ParameterRanges[b.Name]++
			}
		}
	}
}

// Type returns the count for a type key.
func (t Table) Type(key string) int { return t.ModelTypes[key] }

// Precision returns the count for a precision.
func (t Table) Precision(p string) int { return t.Precisions[p] }

// Range returns the count for a named parameter bucket.
func (t Table) Range(bucket string) int { return t.ParameterRanges[bucket] }

// Result holds the unrestricted and official-only tables.
type Result struct {
	Normal       Table `json:"normal"`
	OfficialOnly Table `json:"officialOnly"`
}

// Active returns the table that applies while official mode is on or off.
func (r Result) Active(official bool) Table {
	if official {
		return r.OfficialOnly
	}
	return r.Normal
}

// Compute walks entries once and fills both tables.
func Compute(entries []model.Entry) Result {
	r := Result{Normal: newTable(), OfficialOnly: newTable()}
	for i := range entries {
		e := &entries[i]
		r.Normal.add(e)
		if e.Features.IsHighlightedByMaintainer {
			r.OfficialOnly.add(e)
		}
	}
	return r
}
