package api

import (
	"encoding/json"
	"time"

	"github.com/rubiojr/leaderboard/pkg/counts"
	"github.com/rubiojr/leaderboard/pkg/filter"
	"github.com/rubiojr/leaderboard/pkg/ranking"
	"github.com/rubiojr/leaderboard/pkg/store"
	"github.com/rubiojr/leaderboard/pkg/urlsync"
	"github.com/rubiojr/leaderboard/pkg/view"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Entries   int       `json:"entries"`
	Loading   bool      `json:"loading"`
	Sessions  int       `json:"sessions"`
}

// StateResponse is the serializable part of a store state.
type StateResponse struct {
	Filters         filter.State    `json:"filters"`
	Display         store.Display   `json:"display"`
	Pinned          []string        `json:"pinned"`
	Sort            ranking.Sort    `json:"sort"`
	FiltersExpanded bool            `json:"filtersExpanded"`
	Revisions       store.Revisions `json:"revisions"`
}

func newStateResponse(st store.State) StateResponse {
	return StateResponse{
		Filters:         st.Filters,
		Display:         st.Display,
		Pinned:          st.Pinned,
		Sort:            st.Sort,
		FiltersExpanded: st.FiltersExpanded,
		Revisions:       st.Rev,
	}
}

type LeaderboardResponse struct {
	Query   string            `json:"query"`
	Loading bool              `json:"loading"`
	Rows    []view.Row        `json:"rows"`
	Counts  counts.Result     `json:"counts"`
	Summary view.Summary      `json:"summary"`
	State   StateResponse     `json:"state"`
	Dropped []urlsync.Dropped `json:"dropped,omitempty"`
}

type CountsResponse struct {
	Loading bool `json:"loading"`
	counts.Result
}

// ClientMessage is an action sent over a session socket.
type ClientMessage struct {
	Type   string          `json:"type"`
	Key    string          `json:"key,omitempty"`
	Value  json.RawMessage `json:"value,omitempty"`
	ID     string          `json:"id,omitempty"`
	Source string          `json:"source,omitempty"`
	Column string          `json:"column,omitempty"`
	Desc   bool            `json:"desc,omitempty"`
}

// Client message types.
const (
	MsgSetFilter              = "setFilter"
	MsgSetDisplayOption       = "setDisplayOption"
	MsgTogglePinned           = "togglePinned"
	MsgToggleOfficialProvider = "toggleOfficialProvider"
	MsgApplyPreset            = "applyPreset"
	MsgSetSort                = "setSort"
	MsgToggleFiltersExpanded  = "toggleFiltersExpanded"
	MsgResetFilters           = "resetFilters"
	MsgResetAll               = "resetAll"
	MsgFlush                  = "flush"
)

// ServerMessage is pushed to a session socket.
type ServerMessage struct {
	Type    string         `json:"type"`
	Session string         `json:"session,omitempty"`
	Query   string         `json:"query,omitempty"`
	Loading bool           `json:"loading"`
	Rows    []view.Row     `json:"rows,omitempty"`
	Counts  *counts.Result `json:"counts,omitempty"`
	Summary *view.Summary  `json:"summary,omitempty"`
	State   *StateResponse `json:"state,omitempty"`
	Error   string         `json:"error,omitempty"`
}

const (
	MsgState = "state"
	MsgError = "error"
)
