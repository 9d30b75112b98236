package store

import (
	"slices"

	"github.com/rubiojr/leaderboard/pkg/counts"
	"github.com/rubiojr/leaderboard/pkg/filter"
	"github.com/rubiojr/leaderboard/pkg/model"
	"github.com/rubiojr/leaderboard/pkg/ranking"
)

// Revisions count substate replacements. Derived selectors use them as
// memoization keys.
type Revisions struct {
	Dataset uint64 `json:"dataset"`
	Filters uint64 `json:"filters"`
	Display uint64 `json:"display"`
	Pinned  uint64 `json:"pinned"`
	Sort    uint64 `json:"sort"`
}

// State is the single source of truth for a leaderboard view. Substates
// are replaced, never mutated in place.
type State struct {
	Dataset     *model.Dataset
	Counts      counts.Result
	StaticRanks map[string]int
	CountsReady bool

	Fetching bool
	Err      error

	Filters         filter.State
	Display         Display
	Pinned          []string
	Sort            ranking.Sort
	FiltersExpanded bool

	Rev Revisions
}

// NewState returns the initial state: no data, default selections.
func NewState() State {
	return State{
		Filters: filter.DefaultState(),
		Display: DefaultDisplay(),
		Pinned:  []string{},
		Sort:    ranking.DefaultSort,
	}
}

// Loading is true while data is being fetched or counts for the current
// dataset are not ready.
func (s State) Loading() bool {
	return s.Fetching || !s.CountsReady
}

// IsPinned reports whether id is in the pinned list.
func (s State) IsPinned(id string) bool {
	return slices.Contains(s.Pinned, id)
}
