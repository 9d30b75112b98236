package filter

import (
	"strings"

	"github.com/rubiojr/leaderboard/pkg/model"
	"github.com/rubiojr/leaderboard/pkg/search"
)

// Predicate is a compiled filter State. Compile once per state change and
// reuse it across entries.
type Predicate struct {
	official   bool
	precisions map[string]struct{}
	types      []string
	params     Range
	query      *search.Query
	flags      []FlagSpec
}

// Compile prepares s for matching. Unknown boolean filter names are ignored.
func Compile(s State) *Predicate {
	p := &Predicate{
		official: s.OfficialProviderActive,
		params:   s.ParamsRange,
		query:    search.Compile(s.Search),
	}
	if len(s.Precisions) > 0 {
		p.precisions = make(map[string]struct{}, len(s.Precisions))
		for _, v := range s.Precisions {
			p.precisions[v] = struct{}{}
		}
	}
	for _, t := range s.Types {
		p.types = append(p.types, strings.ToLower(t))
	}
	for _, f := range s.BooleanFilters {
		if spec, ok := LookupFlag(string(f)); ok {
			p.flags = append(p.flags, spec)
		}
	}
	return p
}

// Match applies every active predicate in order and stops at the first
// failure.
func (p *Predicate) Match(e *model.Entry) bool {
	if p.official && !e.Features.IsHighlightedByMaintainer {
		return false
	}
	if p.precisions != nil {
		if _, ok := p.precisions[e.Model.Precision]; !ok {
			return false
		}
	}
	if len(p.types) > 0 && !matchesType(e.Model.Type, p.types) {
		return false
	}
	if !p.params.Contains(e.Params()) {
		return false
	}
	if !p.query.Match(e) {
		return false
	}
	for _, f := range p.flags {
		if !f.Holds(e) {
			return false
		}
	}
	return true
}

// Filter returns the entries that match, preserving order.
func (p *Predicate) Filter(entries []model.Entry) []*model.Entry {
	out := make([]*model.Entry, 0, len(entries))
	for i := range entries {
		if p.Match(&entries[i]) {
			out = append(out, &entries[i])
		}
	}
	return out
}

func matchesType(raw string, selected []string) bool {
	t := strings.ToLower(raw)
	for _, s := range selected {
		if strings.Contains(t, s) {
			return true
		}
	}
	return false
}

// Matches reports whether e satisfies s.
func Matches(e *model.Entry, s State) bool {
	return Compile(s).Match(e)
}
