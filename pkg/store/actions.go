package store

import (
	"github.com/rubiojr/leaderboard/pkg/model"
	"github.com/rubiojr/leaderboard/pkg/ranking"
)

// Action is a state transition request. Reduce is the only function that
// interprets actions.
type Action interface {
	Type() string
}

// SetModels replaces the dataset.
type SetModels struct{ Dataset *model.Dataset }

// SetFilter sets one filter field. Key is one of the Filter* key constants.
type SetFilter struct {
	Key   string
	Value any
}

// SetDisplayOption sets one display field.
type SetDisplayOption struct {
	Key   string
	Value any
}

// TogglePinned pins id, or unpins it when already pinned.
type TogglePinned struct{ ID string }

// SetPinned replaces the pinned list.
type SetPinned struct{ IDs []string }

type ToggleOfficialProvider struct{}

type ToggleFiltersExpanded struct{}

// ResetFilters restores the filter defaults only.
type ResetFilters struct{}

// ResetAll restores filters, display options and the pinned list.
type ResetAll struct{}

type SetLoading struct{ Loading bool }

type SetError struct{ Err error }

// ApplyPreset toggles a quick-filter preset.
type ApplyPreset struct{ ID string }

type SetSort struct{ Sort ranking.Sort }

func (SetModels) Type() string              { return "SET_MODELS" }
func (SetFilter) Type() string              { return "SET_FILTER" }
func (SetDisplayOption) Type() string       { return "SET_DISPLAY_OPTION" }
func (TogglePinned) Type() string           { return "TOGGLE_PINNED" }
func (SetPinned) Type() string              { return "SET_PINNED" }
func (ToggleOfficialProvider) Type() string { return "TOGGLE_OFFICIAL_PROVIDER" }
func (ToggleFiltersExpanded) Type() string  { return "TOGGLE_FILTERS_EXPANDED" }
func (ResetFilters) Type() string           { return "RESET_FILTERS" }
func (ResetAll) Type() string               { return "RESET_ALL" }
func (SetLoading) Type() string             { return "SET_LOADING" }
func (SetError) Type() string               { return "SET_ERROR" }
func (ApplyPreset) Type() string            { return "APPLY_PRESET" }
func (SetSort) Type() string                { return "SET_SORT" }
