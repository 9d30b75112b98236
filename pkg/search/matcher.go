package search

import (
	"regexp"
	"strings"

	"github.com/rubiojr/leaderboard/pkg/model"
)

const metaChars = `\^$.*+?()[]{}|`

// LooksLikeRegex reports whether s contains a regular expression
// metacharacter.
func LooksLikeRegex(s string) bool {
	return strings.ContainsAny(s, metaChars)
}

// Matcher tests strings against a single search term.
type Matcher struct {
	term  string
	lower string
	re    *regexp.Regexp
	inert bool
}

// NewMatcher compiles term. An empty term matches everything.
func NewMatcher(term string) *Matcher {
	m := &Matcher{term: term, lower: strings.ToLower(term)}
	if term != "" && LooksLikeRegex(term) {
		re, err := regexp.Compile("(?i)" + term)
		if err != nil {
			m.inert = true
		} else {
			m.re = re
		}
	}
	return m
}

// Inert reports whether the term failed to compile.
func (m *Matcher) Inert() bool {
	return m.inert
}

func (m *Matcher) Match(s string) bool {
	switch {
	case m.inert:
		return false
	case m.re != nil:
		return m.re.MatchString(s)
	case m.term == "":
		return true
	}
	return strings.Contains(strings.ToLower(s), m.lower)
}

type fieldMatcher struct {
	path string
	m    *Matcher
}

type compiledGroup struct {
	fields []fieldMatcher
	text   *Matcher
}

func (g compiledGroup) match(e *model.Entry) bool {
	for _, f := range g.fields {
		v, ok := e.Field(f.path)
		if !ok || !f.m.Match(v) {
			return false
		}
	}
	return g.text.Match(e.Model.Name)
}

// Query is a compiled search string.
type Query struct {
	raw    string
	groups []compiledGroup
}

// Compile parses and compiles a search string.
func Compile(raw string) *Query {
	q := &Query{raw: raw}
	for _, g := range Parse(raw) {
		cg := compiledGroup{text: NewMatcher(g.Text)}
		for _, p := range g.Predicates {
			cg.fields = append(cg.fields, fieldMatcher{path: p.FieldPath, m: NewMatcher(p.Value)})
		}
		q.groups = append(q.groups, cg)
	}
	return q
}

func (q *Query) String() string {
	return q.raw
}

// Empty reports whether the query places no constraint on entries.
func (q *Query) Empty() bool {
	return q == nil || len(q.groups) == 0
}

// Match reports whether any group matches the entry. An empty query
// matches everything.
func (q *Query) Match(e *model.Entry) bool {
	if q.Empty() {
		return true
	}
	for _, g := range q.groups {
		if g.match(e) {
			return true
		}
	}
	return false
}
