package store

import (
	"time"

	"github.com/benbjohnson/clock"

	"github.com/rubiojr/leaderboard/pkg/filter"
	"github.com/rubiojr/leaderboard/pkg/log"
	"github.com/rubiojr/leaderboard/pkg/ranking"
	"github.com/rubiojr/leaderboard/pkg/schedule"
)

// Timings configures input commit delays.
type Timings struct {
	Search       time.Duration
	Range        time.Duration
	ToggleWindow time.Duration
}

var DefaultTimings = Timings{
	Search:       150 * time.Millisecond,
	Range:        350 * time.Millisecond,
	ToggleWindow: 100 * time.Millisecond,
}

// Actions is the input-facing API of a store. Text search and range
// changes are debounced, toggles are coalesced per source, everything else
// is dispatched immediately.
type Actions struct {
	d       Dispatcher
	timings Timings
	search  *schedule.Task
	params  *schedule.Task
	toggles *schedule.Coalescer
	log     *log.Logger
}

func NewActions(d Dispatcher, clk clock.Clock, t Timings) *Actions {
	if clk == nil {
		clk = clock.New()
	}
	return &Actions{
		d:       d,
		timings: t,
		search:  schedule.NewTask(clk),
		params:  schedule.NewTask(clk),
		toggles: schedule.NewCoalescer(clk, t.ToggleWindow),
		log:     log.ForService("actions"),
	}
}

// SetFilter dispatches a filter change. Search and paramsRange go through
// their debounced setters.
func (a *Actions) SetFilter(key string, value any) error {
	switch key {
	case FilterSearch:
		if v, ok := value.(string); ok {
			a.SetSearch(v)
			return nil
		}
	case FilterParamsRange:
		if r, ok := toRange(value); ok {
			return a.SetParamsRange(r)
		}
	}
	return a.d.Dispatch(SetFilter{Key: key, Value: value})
}

// SetSearch commits the search text after the search delay. Only the last
// value typed within the delay is committed.
func (a *Actions) SetSearch(q string) {
	a.search.Arm(a.timings.Search, func() {
		a.commit(SetFilter{Key: FilterSearch, Value: q})
	})
}

// SetParamsRange validates r and commits it after the range delay.
func (a *Actions) SetParamsRange(r filter.Range) error {
	if err := r.Validate(); err != nil {
		return err
	}
	a.params.Arm(a.timings.Range, func() {
		a.commit(SetFilter{Key: FilterParamsRange, Value: r})
	})
	return nil
}

func (a *Actions) commit(act Action) {
	if err := a.d.Dispatch(act); err != nil {
		a.log.Warnf("deferred %s failed: %v", act.Type(), err)
	}
}

func (a *Actions) SetDisplayOption(key string, value any) error {
	return a.d.Dispatch(SetDisplayOption{Key: key, Value: value})
}

func (a *Actions) TogglePinnedModel(id string) error {
	return a.d.Dispatch(TogglePinned{ID: id})
}

// ToggleOfficialProvider flips official mode. A repeated toggle from the
// same source inside the coalescing window is ignored and reports false.
func (a *Actions) ToggleOfficialProvider(source string) (bool, error) {
	if !a.toggles.Allow(source) {
		a.log.Debugf("coalesced official toggle from %q", source)
		return false, nil
	}
	return true, a.d.Dispatch(ToggleOfficialProvider{})
}

// ApplyPreset toggles a preset, coalesced like ToggleOfficialProvider.
func (a *Actions) ApplyPreset(id, source string) (bool, error) {
	if !a.toggles.Allow(source) {
		a.log.Debugf("coalesced preset %s from %q", id, source)
		return false, nil
	}
	return true, a.d.Dispatch(ApplyPreset{ID: id})
}

func (a *Actions) SetSort(col string, desc bool) error {
	return a.d.Dispatch(SetSort{Sort: ranking.Sort{Column: col, Desc: desc}})
}

func (a *Actions) ToggleFiltersExpanded() error {
	return a.d.Dispatch(ToggleFiltersExpanded{})
}

// ResetFilters drops pending debounced commits before resetting, so a late
// search commit can not undo the reset.
func (a *Actions) ResetFilters() error {
	a.Cancel()
	return a.d.Dispatch(ResetFilters{})
}

func (a *Actions) ResetAll() error {
	a.Cancel()
	return a.d.Dispatch(ResetAll{})
}

// Flush commits pending debounced input immediately.
func (a *Actions) Flush() {
	a.search.Flush()
	a.params.Flush()
}

// Cancel drops pending debounced input.
func (a *Actions) Cancel() {
	a.search.Cancel()
	a.params.Cancel()
}
