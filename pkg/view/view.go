// Package view derives the rendered leaderboard rows from a dataset and the
// current filter, display and pin state.
package view

import (
	"encoding/json"
	"strings"

	"github.com/rubiojr/leaderboard/pkg/filter"
	"github.com/rubiojr/leaderboard/pkg/model"
	"github.com/rubiojr/leaderboard/pkg/ranking"
)

const (
	AverageAll     = "all"
	AverageVisible = "visible"
)

// Row is an entry annotated for display.
type Row struct {
	*model.Entry
	StaticRank  int  `json:"static_rank"`
	DynamicRank int  `json:"dynamic_rank"`
	Rank        int  `json:"rank"`
	IsPinned    bool `json:"isPinned"`
	// Average is the displayed average. It differs from the stored average
	// score when only visible columns are averaged.
	Average *float64 `json:"average"`
}

// UnmarshalJSON decodes both the entry and its annotations. The embedded
// entry's own decoder would otherwise consume the whole object.
func (r *Row) UnmarshalJSON(data []byte) error {
	var e model.Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return err
	}
	var a struct {
		StaticRank  int      `json:"static_rank"`
		DynamicRank int      `json:"dynamic_rank"`
		Rank        int      `json:"rank"`
		IsPinned    bool     `json:"isPinned"`
		Average     *float64 `json:"average"`
	}
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*r = Row{
		Entry:       &e,
		StaticRank:  a.StaticRank,
		DynamicRank: a.DynamicRank,
		Rank:        a.Rank,
		IsPinned:    a.IsPinned,
		Average:     a.Average,
	}
	return nil
}

// Options carries everything Build needs besides the dataset.
type Options struct {
	Filters        filter.State
	Sort           ranking.Sort
	Mode           ranking.Mode
	Pinned         []string
	StaticRanks    map[string]int
	RawScores      bool
	AverageMode    string
	VisibleColumns []string
	// PinnedBypassFilters keeps pinned rows in the view when they fail the
	// filter.
	PinnedBypassFilters bool
}

type Summary struct {
	Total    int `json:"total"`
	Matching int `json:"matching"`
	Pinned   int `json:"pinned"`
}

type Result struct {
	Rows    []Row   `json:"rows"`
	Summary Summary `json:"summary"`
}

// Build filters, sorts, ranks and lifts pinned rows.
func Build(ds *model.Dataset, o Options) Result {
	pred := filter.Compile(o.Filters)
	rows := pred.Filter(ds.Entries())
	matched := make(map[string]bool, len(rows))
	for _, e := range rows {
		matched[e.ID] = true
	}

	pinned := resolvePinned(ds, o.Pinned)
	isPinned := make(map[string]bool, len(pinned))
	res := Result{Summary: Summary{Total: ds.Len(), Matching: len(rows)}}
	for _, id := range pinned {
		isPinned[id] = true
		if matched[id] {
			// Shown in the pinned block, not among the matches.
			res.Summary.Matching--
		} else if o.PinnedBypassFilters {
			e, _ := ds.Lookup(id)
			rows = append(rows, e)
		}
	}

	averages := map[string]*float64{}
	evalCols := evaluationKeys(o.VisibleColumns)
	for _, e := range rows {
		averages[e.ID] = average(e, o.AverageMode, evalCols, o.RawScores)
	}

	srt := o.Sort
	if srt.Column == "" {
		srt = ranking.DefaultSort
	}
	sorter := ranking.Sorter{Sort: srt, Raw: o.RawScores, Static: o.StaticRanks}
	if o.AverageMode == AverageVisible {
		sorter.Score = func(e *model.Entry) (float64, bool) {
			if v := averages[e.ID]; v != nil {
				return *v, true
			}
			return 0, false
		}
	}
	sorter.Apply(rows)

	// Rows kept only by the pinned bypass are outside the filtered subset:
	// they get no dynamic rank and show their static rank in either mode.
	out := make([]Row, 0, len(rows))
	dynamic := 0
	for _, e := range rows {
		r := Row{
			Entry:      e,
			StaticRank: o.StaticRanks[e.ID],
			IsPinned:   isPinned[e.ID],
			Average:    averages[e.ID],
		}
		if matched[e.ID] {
			dynamic++
			r.DynamicRank = dynamic
		}
		r.Rank = r.StaticRank
		if o.Mode == ranking.ModeDynamic && r.DynamicRank > 0 {
			r.Rank = r.DynamicRank
		}
		if r.IsPinned {
			res.Summary.Pinned++
		}
		out = append(out, r)
	}
	res.Rows = ranking.Lift(out, func(r Row) string { return r.ID }, pinned)
	return res
}

// resolvePinned drops ids that are not in the dataset, keeping pin order.
func resolvePinned(ds *model.Dataset, ids []string) []string {
	var out []string
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		if _, ok := ds.Index(id); ok {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func evaluationKeys(columns []string) []string {
	var keys []string
	for _, c := range columns {
		if k, ok := strings.CutPrefix(c, "evaluations."); ok {
			keys = append(keys, k)
		}
	}
	return keys
}

func average(e *model.Entry, mode string, keys []string, raw bool) *float64 {
	if mode != AverageVisible {
		if v, ok := e.Score(); ok {
			return &v
		}
		return nil
	}
	var sum float64
	var n int
	for _, k := range keys {
		if v, ok := e.EvaluationScore(k, raw); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}
