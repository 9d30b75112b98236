package store

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/rubiojr/leaderboard/pkg/filter"
	"github.com/rubiojr/leaderboard/pkg/model"
	"github.com/rubiojr/leaderboard/pkg/ranking"
)

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrUnknownKey    = errors.New("unknown key")
	ErrInvalidValue  = errors.New("invalid value")
)

// Filter keys accepted by SetFilter.
const (
	FilterSearch         = "search"
	FilterPrecisions     = "precisions"
	FilterTypes          = "types"
	FilterParamsRange    = "paramsRange"
	FilterBooleanFilters = "booleanFilters"
	FilterOfficial       = "isOfficialProviderActive"
)

// Reduce applies a to s. On error the returned state is s unchanged.
// Dataset-derived values are computed afresh for every new dataset.
func Reduce(s State, a Action) (State, error) {
	return ReduceWith(nil, s, a)
}

// ReduceWith is Reduce with derived values taken from d, which may be
// shared between stores.
func ReduceWith(d *Deriver, s State, a Action) (State, error) {
	switch a := a.(type) {
	case SetModels:
		return reduceModels(d, s, a.Dataset), nil
	case SetFilter:
		return reduceFilter(s, a.Key, a.Value)
	case SetDisplayOption:
		return reduceDisplay(s, a.Key, a.Value)
	case TogglePinned:
		if a.ID == "" {
			return s, fmt.Errorf("%w: empty model id", ErrInvalidValue)
		}
		next := s
		if i := slices.Index(s.Pinned, a.ID); i >= 0 {
			next.Pinned = slices.Delete(slices.Clone(s.Pinned), i, i+1)
		} else {
			next.Pinned = append(slices.Clone(s.Pinned), a.ID)
		}
		next.Rev.Pinned++
		return next, nil
	case SetPinned:
		next := s
		next.Pinned = dedupe(a.IDs)
		next.Rev.Pinned++
		return next, nil
	case ToggleOfficialProvider:
		next := s
		next.Filters = s.Filters.Clone()
		next.Filters.OfficialProviderActive = !s.Filters.OfficialProviderActive
		next.Rev.Filters++
		return next, nil
	case ToggleFiltersExpanded:
		next := s
		next.FiltersExpanded = !s.FiltersExpanded
		return next, nil
	case ResetFilters:
		next := s
		next.Filters = filter.DefaultState()
		next.Rev.Filters++
		return next, nil
	case ResetAll:
		next := s
		next.Filters = filter.DefaultState()
		next.Display = DefaultDisplay()
		next.Pinned = []string{}
		next.Rev.Filters++
		next.Rev.Display++
		next.Rev.Pinned++
		return next, nil
	case SetLoading:
		next := s
		next.Fetching = a.Loading
		return next, nil
	case SetError:
		next := s
		next.Err = a.Err
		next.Fetching = false
		return next, nil
	case ApplyPreset:
		p, ok := filter.LookupPreset(a.ID)
		if !ok {
			return s, fmt.Errorf("%w: preset %q", ErrUnknownKey, a.ID)
		}
		next := s
		next.Filters = p.Toggle(s.Filters)
		next.Rev.Filters++
		return next, nil
	case SetSort:
		if !IsColumn(a.Sort.Column) {
			return s, fmt.Errorf("%w: sort column %q", ErrInvalidValue, a.Sort.Column)
		}
		next := s
		next.Sort = a.Sort
		next.Rev.Sort++
		return next, nil
	case nil:
		return s, fmt.Errorf("%w: nil", ErrUnknownAction)
	}
	return s, fmt.Errorf("%w: %s", ErrUnknownAction, a.Type())
}

func reduceModels(dr *Deriver, s State, ds *model.Dataset) State {
	next := s
	next.Fetching = false
	next.Err = nil
	if s.CountsReady && s.Dataset == ds {
		return next
	}
	d := dr.derive(ds)
	next.Dataset = ds
	next.Counts = d.counts
	next.StaticRanks = d.ranks
	next.CountsReady = true
	next.Rev.Dataset++
	return next
}

func reduceFilter(s State, key string, value any) (State, error) {
	f := s.Filters.Clone()
	switch key {
	case FilterSearch:
		v, ok := value.(string)
		if !ok {
			return s, invalid(key, value)
		}
		f.Search = v
	case FilterPrecisions:
		v, ok := toStrings(value)
		if !ok {
			return s, invalid(key, value)
		}
		for _, p := range v {
			if p == "" {
				return s, invalid(key, value)
			}
		}
		f.Precisions = dedupe(v)
	case FilterTypes:
		v, ok := toStrings(value)
		if !ok {
			return s, invalid(key, value)
		}
		for _, t := range v {
			if !model.IsKnownType(t) {
				return s, fmt.Errorf("%w: unknown model type %q", ErrInvalidValue, t)
			}
		}
		f.Types = dedupe(v)
	case FilterParamsRange:
		r, ok := toRange(value)
		if !ok {
			return s, invalid(key, value)
		}
		if err := r.Validate(); err != nil {
			return s, fmt.Errorf("%w: %w", ErrInvalidValue, err)
		}
		f.ParamsRange = r
	case FilterBooleanFilters:
		v, ok := toStrings(value)
		if !ok {
			return s, invalid(key, value)
		}
		flags := make([]filter.Flag, 0, len(v))
		for _, name := range dedupe(v) {
			spec, ok := filter.LookupFlag(name)
			if !ok {
				return s, fmt.Errorf("%w: unknown boolean filter %q", ErrInvalidValue, name)
			}
			flags = append(flags, spec.Flag)
		}
		f.BooleanFilters = flags
	case FilterOfficial:
		v, ok := value.(bool)
		if !ok {
			return s, invalid(key, value)
		}
		f.OfficialProviderActive = v
	default:
		return s, fmt.Errorf("%w: filter %q", ErrUnknownKey, key)
	}
	next := s
	next.Filters = f
	next.Rev.Filters++
	return next, nil
}

func reduceDisplay(s State, key string, value any) (State, error) {
	d := s.Display.Clone()
	if key == KeyVisibleColumns {
		v, ok := toStrings(value)
		if !ok {
			return s, invalid(key, value)
		}
		d.VisibleColumns = NormalizeColumns(v)
	} else {
		options, known := DisplayOptions[key]
		if !known {
			return s, fmt.Errorf("%w: display option %q", ErrUnknownKey, key)
		}
		v, ok := toString(value)
		if !ok || !slices.Contains(options, v) {
			return s, invalid(key, value)
		}
		switch key {
		case KeyRowSize:
			d.RowSize = v
		case KeyScoreDisplay:
			d.ScoreDisplay = v
		case KeyAverageMode:
			d.AverageMode = v
		case KeyRankingMode:
			d.RankingMode = ranking.Mode(v)
		}
	}
	next := s
	next.Display = d
	next.Rev.Display++
	return next, nil
}

func invalid(key string, value any) error {
	return fmt.Errorf("%w: %s=%v (%T)", ErrInvalidValue, key, value, value)
}

func toString(v any) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, true
	case ranking.Mode:
		return string(v), true
	}
	return "", false
}

func toStrings(v any) ([]string, bool) {
	switch v := v.(type) {
	case []string:
		return v, true
	case []filter.Flag:
		out := make([]string, len(v))
		for i, f := range v {
			out[i] = string(f)
		}
		return out, true
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	case nil:
		return []string{}, true
	}
	return nil, false
}

func toRange(v any) (filter.Range, bool) {
	var pair []float64
	switch v := v.(type) {
	case filter.Range:
		pair = []float64{v.Min, v.Max}
	case [2]float64:
		pair = v[:]
	case []float64:
		pair = v
	case []any:
		for _, e := range v {
			f, ok := e.(float64)
			if !ok {
				return filter.Range{}, false
			}
			pair = append(pair, f)
		}
	default:
		return filter.Range{}, false
	}
	if len(pair) != 2 {
		return filter.Range{}, false
	}
	return filter.Range{Min: round2(pair[0]), Max: round2(pair[1])}, true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, v := range in {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
