// Package urlsync maps leaderboard state to and from a shareable query
// string.
//
// The mapping has two halves. Hydrate reads a query string once, when a
// view is mounted, and turns the parameters that are present into store
// actions. Project computes the query string for a state, writing only
// parameters that changed and removing those back at their default. A
// Projector applies Project after every store transition, so the URL only
// ever follows the store.
package urlsync

import (
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/rubiojr/leaderboard/pkg/filter"
	"github.com/rubiojr/leaderboard/pkg/model"
	"github.com/rubiojr/leaderboard/pkg/store"
)

// Query parameter names. These are part of the public URL format.
const (
	ParamSearch       = "search"
	ParamParams       = "params"
	ParamFilters      = "filters"
	ParamPrecision    = "precision"
	ParamTypes        = "types"
	ParamOfficial     = "official"
	ParamPinned       = "pinned"
	ParamColumns      = "columns"
	ParamRowSize      = "rowSize"
	ParamScoreDisplay = "scoreDisplay"
	ParamAverageMode  = "averageMode"
	ParamRankingMode  = "rankingMode"
)

// Params lists every parameter owned by the mapping.
var Params = []string{
	ParamSearch,
	ParamParams,
	ParamFilters,
	ParamPrecision,
	ParamTypes,
	ParamOfficial,
	ParamPinned,
	ParamColumns,
	ParamRowSize,
	ParamScoreDisplay,
	ParamAverageMode,
	ParamRankingMode,
}

var displayParams = map[string]string{
	ParamRowSize:      store.KeyRowSize,
	ParamScoreDisplay: store.KeyScoreDisplay,
	ParamAverageMode:  store.KeyAverageMode,
	ParamRankingMode:  store.KeyRankingMode,
}

// Dropped describes a parameter value that Hydrate discarded.
type Dropped struct {
	Param string `json:"param"`
	Value string `json:"value"`
}

// Hydrate converts the parameters present in q to actions. Parameters that
// are absent produce nothing, so defaults stay in place. Malformed values
// are discarded and reported in dropped.
func Hydrate(q url.Values) (actions []store.Action, dropped []Dropped) {
	drop := func(p, v string) { dropped = append(dropped, Dropped{Param: p, Value: v}) }

	for _, p := range Params {
		if !q.Has(p) {
			continue
		}
		raw := q.Get(p)
		switch p {
		case ParamSearch:
			actions = append(actions, store.SetFilter{Key: store.FilterSearch, Value: raw})
		case ParamParams:
			r, ok := parseRange(raw)
			if !ok {
				drop(p, raw)
				continue
			}
			actions = append(actions, store.SetFilter{Key: store.FilterParamsRange, Value: r})
		case ParamFilters:
			var flags []filter.Flag
			for _, name := range splitList(raw) {
				spec, ok := filter.LookupFlag(name)
				if !ok {
					drop(p, name)
					continue
				}
				flags = append(flags, spec.Flag)
			}
			if flags == nil {
				flags = []filter.Flag{}
			}
			actions = append(actions, store.SetFilter{Key: store.FilterBooleanFilters, Value: flags})
		case ParamPrecision:
			actions = append(actions, store.SetFilter{Key: store.FilterPrecisions, Value: splitList(raw)})
		case ParamTypes:
			types := []string{}
			for _, t := range splitList(raw) {
				if !model.IsKnownType(t) {
					drop(p, t)
					continue
				}
				types = append(types, t)
			}
			actions = append(actions, store.SetFilter{Key: store.FilterTypes, Value: types})
		case ParamOfficial:
			v, err := strconv.ParseBool(raw)
			if err != nil {
				drop(p, raw)
				continue
			}
			actions = append(actions, store.SetFilter{Key: store.FilterOfficial, Value: v})
		case ParamPinned:
			actions = append(actions, store.SetPinned{IDs: splitList(raw)})
		case ParamColumns:
			var cols []string
			for _, c := range splitList(raw) {
				if !store.IsColumn(c) {
					drop(p, c)
					continue
				}
				cols = append(cols, c)
			}
			actions = append(actions, store.SetDisplayOption{Key: store.KeyVisibleColumns, Value: cols})
		default:
			key := displayParams[p]
			if !slices.Contains(store.DisplayOptions[key], raw) {
				drop(p, raw)
				continue
			}
			actions = append(actions, store.SetDisplayOption{Key: key, Value: raw})
		}
	}
	return actions, dropped
}

// Encode returns the query representation of st for every owned parameter.
// A parameter that is absent from the result is at its default.
func Encode(st store.State) url.Values {
	q := url.Values{}
	f := st.Filters
	d := st.Display

	if f.Search != "" {
		q.Set(ParamSearch, f.Search)
	}
	if !f.ParamsRange.IsSentinel() {
		q.Set(ParamParams, formatFloat(f.ParamsRange.Min)+","+formatFloat(f.ParamsRange.Max))
	}
	if len(f.BooleanFilters) > 0 {
		names := make([]string, len(f.BooleanFilters))
		for i, fl := range f.BooleanFilters {
			names[i] = string(fl)
		}
		q.Set(ParamFilters, strings.Join(names, ","))
	}
	if !filter.SameSet(f.Precisions, filter.DefaultPrecisions) {
		q.Set(ParamPrecision, strings.Join(f.Precisions, ","))
	}
	if !filter.SameSet(f.Types, filter.DefaultTypes) {
		q.Set(ParamTypes, strings.Join(f.Types, ","))
	}
	if f.OfficialProviderActive {
		q.Set(ParamOfficial, "true")
	}
	if len(st.Pinned) > 0 {
		q.Set(ParamPinned, strings.Join(st.Pinned, ","))
	}
	if !filter.SameSet(d.VisibleColumns, store.DefaultColumns()) {
		q.Set(ParamColumns, strings.Join(d.VisibleColumns, ","))
	}
	def := store.DefaultDisplay()
	if d.RowSize != def.RowSize {
		q.Set(ParamRowSize, d.RowSize)
	}
	if d.ScoreDisplay != def.ScoreDisplay {
		q.Set(ParamScoreDisplay, d.ScoreDisplay)
	}
	if d.AverageMode != def.AverageMode {
		q.Set(ParamAverageMode, d.AverageMode)
	}
	if d.RankingMode != def.RankingMode {
		q.Set(ParamRankingMode, string(d.RankingMode))
	}
	return q
}

// Project returns current updated to reflect st. Parameters that are not
// owned by this package are kept. The boolean reports whether anything
// changed; when false the returned values are current itself.
func Project(current url.Values, st store.State) (url.Values, bool) {
	want := Encode(st)
	var next url.Values
	ensure := func() {
		if next == nil {
			next = cloneValues(current)
		}
	}
	for _, p := range Params {
		v, present := want[p]
		if present {
			if cur, ok := current[p]; ok && slices.Equal(cur, v) {
				continue
			}
			ensure()
			next[p] = v
			continue
		}
		if current.Has(p) {
			ensure()
			next.Del(p)
		}
	}
	if next == nil {
		return current, false
	}
	return next, true
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vs := range v {
		out[k] = slices.Clone(vs)
	}
	return out
}

func splitList(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseRange(raw string) (filter.Range, bool) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return filter.Range{}, false
	}
	lo, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	hi, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return filter.Range{}, false
	}
	r := filter.Range{Min: math.Round(lo*100) / 100, Max: math.Round(hi*100) / 100}
	if r.Validate() != nil {
		return filter.Range{}, false
	}
	return r, true
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
