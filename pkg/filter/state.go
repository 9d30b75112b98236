package filter

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/rubiojr/leaderboard/pkg/model"
)

var ErrInvalidRange = errors.New("invalid params range")

// Range is a half-open parameter range [Min, Max) in billions.
type Range struct {
	Min float64
	Max float64
}

// SentinelRange is the default range. It matches every entry, including
// those without a known parameter count.
var SentinelRange = Range{Min: -1, Max: 140}

func (r Range) IsSentinel() bool {
	return r == SentinelRange
}

// Contains reports whether p falls in the range.
func (r Range) Contains(p model.Params) bool {
	if r.IsSentinel() {
		return true
	}
	if !p.Valid() {
		return false
	}
	v := float64(p)
	return v >= r.Min && v < r.Max
}

func (r Range) Validate() error {
	if math.IsNaN(r.Min) || math.IsNaN(r.Max) || math.IsInf(r.Min, 0) || math.IsInf(r.Max, 0) {
		return fmt.Errorf("%w: non-finite bound", ErrInvalidRange)
	}
	if r.Min > r.Max {
		return fmt.Errorf("%w: min %g > max %g", ErrInvalidRange, r.Min, r.Max)
	}
	return nil
}

func (r Range) MarshalJSON() ([]byte, error) {
	return fmt.Appendf(nil, "[%g,%g]", r.Min, r.Max), nil
}

func (r *Range) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("%w: expected two bounds, got %d", ErrInvalidRange, len(pair))
	}
	*r = Range{Min: pair[0], Max: pair[1]}
	return nil
}

// DefaultPrecisions and DefaultTypes are the initial selections.
var (
	DefaultPrecisions = []string{"bfloat16", "float16", "4bit"}
	DefaultTypes      = []string{
		"pretrained",
		"continuously pretrained",
		"fine-tuned",
		"chat",
		"merge",
		"multimodal",
	}
)

// State is the active filter selection.
type State struct {
	Search                 string   `json:"search"`
	Precisions             []string `json:"precisions"`
	Types                  []string `json:"types"`
	ParamsRange            Range    `json:"paramsRange"`
	BooleanFilters         []Flag   `json:"booleanFilters"`
	OfficialProviderActive bool     `json:"isOfficialProviderActive"`
}

func DefaultState() State {
	return State{
		Precisions:     slices.Clone(DefaultPrecisions),
		Types:          slices.Clone(DefaultTypes),
		ParamsRange:    SentinelRange,
		BooleanFilters: []Flag{},
	}
}

// Clone returns a copy that shares no slices with s.
func (s State) Clone() State {
	c := s
	c.Precisions = slices.Clone(s.Precisions)
	c.Types = slices.Clone(s.Types)
	c.BooleanFilters = slices.Clone(s.BooleanFilters)
	return c
}

// Equal compares two states. Selections compare as sets.
func (s State) Equal(o State) bool {
	return s.Search == o.Search &&
		s.ParamsRange == o.ParamsRange &&
		s.OfficialProviderActive == o.OfficialProviderActive &&
		SameSet(s.Precisions, o.Precisions) &&
		SameSet(s.Types, o.Types) &&
		SameSet(s.BooleanFilters, o.BooleanFilters)
}

// HasActive reports whether s differs from the defaults.
func (s State) HasActive() bool {
	return !s.Equal(DefaultState())
}

// SameSet reports whether a and b hold the same distinct elements.
func SameSet[T comparable](a, b []T) bool {
	seen := make(map[T]bool, len(a))
	for _, v := range a {
		seen[v] = true
	}
	other := make(map[T]bool, len(b))
	for _, v := range b {
		if !seen[v] {
			return false
		}
		other[v] = true
	}
	return len(seen) == len(other)
}
