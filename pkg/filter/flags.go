package filter

import "github.com/rubiojr/leaderboard/pkg/model"

// Polarity says which flag value a selected boolean filter requires.
type Polarity int

const (
	// Positive filters keep entries whose flag is set.
	Positive Polarity = iota
	// Inverted filters keep entries whose flag is not set. They back the
	// "hide X" toggles.
	Inverted
)

func (p Polarity) String() string {
	if p == Inverted {
		return "inverted"
	}
	return "positive"
}

// Flag names a boolean feature of an entry.
type Flag string

const (
	FlagHighlighted Flag = "is_highlighted_by_maintainer"
	FlagNotOnHub    Flag = "is_not_available_on_hub"
	FlagMoE         Flag = "is_moe"
	FlagMerged      Flag = "is_merged"
	FlagFlagged     Flag = "is_flagged"
)

// FlagSpec binds a flag to its polarity and accessor.
type FlagSpec struct {
	Flag     Flag
	Polarity Polarity
	Label    string
	value    func(model.Features) bool
}

// Holds reports whether the entry passes the filter when it is selected.
func (s FlagSpec) Holds(e *model.Entry) bool {
	v := s.value(e.Features)
	if s.Polarity == Inverted {
		return !v
	}
	return v
}

// Value returns the raw flag value of an entry.
func (s FlagSpec) Value(e *model.Entry) bool {
	return s.value(e.Features)
}

var flagSpecs = []FlagSpec{
	{
		Flag: FlagHighlighted, Polarity: Positive, Label: "Official Providers",
		value: func(f model.Features) bool { return f.IsHighlightedByMaintainer },
	},
	{
		Flag: FlagNotOnHub, Polarity: Positive, Label: "Unavailable on Hub",
		value: func(f model.Features) bool { return f.IsNotAvailableOnHub },
	},
	{
		Flag: FlagMoE, Polarity: Inverted, Label: "Hide Mixture of Experts",
		value: func(f model.Features) bool { return f.IsMoE },
	},
	{
		Flag: FlagMerged, Polarity: Inverted, Label: "Hide Merged Models",
		value: func(f model.Features) bool { return f.IsMerged },
	},
	{
		Flag: FlagFlagged, Polarity: Inverted, Label: "Hide Flagged Models",
		value: func(f model.Features) bool { return f.IsFlagged },
	},
}

var flagIndex = func() map[Flag]int {
	m := make(map[Flag]int, len(flagSpecs))
	for i, s := range flagSpecs {
		m[s.Flag] = i
	}
	return m
}()

// Flags returns the flag registry in display order.
func Flags() []FlagSpec {
	out := make([]FlagSpec, len(flagSpecs))
	copy(out, flagSpecs)
	return out
}

// LookupFlag returns the spec registered for name.
func LookupFlag(name string) (FlagSpec, bool) {
	i, ok := flagIndex[Flag(name)]
	if !ok {
		return FlagSpec{}, false
	}
	return flagSpecs[i], true
}
