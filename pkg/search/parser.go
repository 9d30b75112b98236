package search

import (
	"regexp"
	"strings"
)

// Predicate is a single @field:value token.
type Predicate struct {
	// FieldPath is the record path the value is matched against.
	FieldPath string `json:"fieldPath"`
	// RawField is the field name as typed by the user.
	RawField string `json:"rawField"`
	Value    string `json:"value"`
}

// Group is one OR-group of a query.
type Group struct {
	Predicates []Predicate `json:"fieldPredicates"`
	Text       string      `json:"freeText"`
}

// Empty reports whether the group carries no predicates and no text.
func (g Group) Empty() bool {
	return len(g.Predicates) == 0 && g.Text == ""
}

var fieldAliases = map[string]string{
	"precision":    "model.precision",
	"architecture": "model.architecture",
	"license":      "metadata.hub_license",
	"type":         "model.type",
}

// FieldPath maps a user-facing field name to a record path.
func FieldPath(field string) string {
	if path, ok := fieldAliases[field]; ok {
		return path
	}
	return field
}

var tokenRe = regexp.MustCompile(`@([\w.]+):([^\s@]*)`)

// Parse splits a raw search string into OR-groups. Groups that are empty
// after trimming are omitted.
func Parse(query string) []Group {
	var groups []Group
	for _, part := range strings.Split(query, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		g := parseGroup(part)
		if g.Empty() {
			continue
		}
		groups = append(groups, g)
	}
	return groups
}

func parseGroup(text string) Group {
	var g Group
	rest := tokenRe.ReplaceAllStringFunc(text, func(tok string) string {
		m := tokenRe.FindStringSubmatch(tok)
		if m[2] != "" {
			g.Predicates = append(g.Predicates, Predicate{
				FieldPath: FieldPath(m[1]),
				RawField:  m[1],
				Value:     m[2],
			})
		}
		return ""
	})
	g.Text = strings.TrimSpace(rest)
	return g
}

// Describe renders each group as display text: the free text followed by
// its field tokens.
func Describe(query string) []string {
	groups := Parse(query)
	out := make([]string, 0, len(groups))
	for _, g := range groups {
		parts := make([]string, 0, len(g.Predicates)+1)
		if g.Text != "" {
			parts = append(parts, g.Text)
		}
		for _, p := range g.Predicates {
			parts = append(parts, "@"+p.RawField+":"+p.Value)
		}
		out = append(out, strings.Join(parts, " "))
	}
	return out
}

// TextOnly returns the free-text parts of a query joined by ';'. It is
// used for highlighting model names.
func TextOnly(query string) string {
	var parts []string
	for _, g := range Parse(query) {
		if g.Text != "" {
			parts = append(parts, g.Text)
		}
	}
	return strings.Join(parts, ";")
}
