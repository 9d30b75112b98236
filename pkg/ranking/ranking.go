// Package ranking orders leaderboard rows and assigns rank numbers.
//
// Static ranks come from the whole dataset sorted by average score and are
// computed once per dataset. Dynamic ranks are positions in the current
// filtered and sorted view. Which one is shown never changes row order.
package ranking

import (
	"cmp"
	"slices"
	"strings"

	"github.com/rubiojr/leaderboard/pkg/model"
)

const (
	ColumnScore = "model.average_score"
	ColumnRank  = "rank"
)

// Mode selects which rank is displayed.
type Mode string

const (
	ModeStatic  Mode = "static"
	ModeDynamic Mode = "dynamic"
)

// Sort describes the active column sort.
type Sort struct {
	Column string `json:"column"`
	Desc   bool   `json:"desc"`
}

var DefaultSort = Sort{Column: ColumnScore, Desc: true}

// Static returns 1-based ranks keyed by entry id. Ties keep input order and
// entries without a score rank last.
func Static(entries []model.Entry) map[string]int {
	rows := make([]*model.Entry, len(entries))
	for i := range entries {
		rows[i] = &entries[i]
	}
	Sorter{Sort: DefaultSort}.Apply(rows)
	ranks := make(map[string]int, len(rows))
	for i, e := range rows {
		ranks[e.ID] = i + 1
	}
	return ranks
}

var textColumns = map[string]bool{
	"id":                       true,
	"model.name":               true,
	"model.type":               true,
	"model.precision":          true,
	"model.architecture":       true,
	"model.weight_type":        true,
	"metadata.hub_license":     true,
	"metadata.base_model":      true,
	"metadata.upload_date":     true,
	"metadata.submission_date": true,
}

// Sorter sorts rows by a column. Missing values always sort last.
type Sorter struct {
	Sort Sort
	// Raw sorts evaluation columns by raw value instead of normalized score.
	Raw bool
	// Static resolves the rank column. Rows absent from it count as missing.
	Static map[string]int
	// Score overrides the value used for the average score column.
	Score func(*model.Entry) (float64, bool)
}

// Apply sorts rows in place. The sort is stable.
func (s Sorter) Apply(rows []*model.Entry) {
	col := s.Sort.Column
	if col == "" {
		return
	}
	if textColumns[col] {
		slices.SortStableFunc(rows, func(a, b *model.Entry) int {
			va, _ := a.Field(col)
			vb, _ := b.Field(col)
			return orderMissingLast(va, va != "", vb, vb != "", s.Sort.Desc, func(x, y string) int {
				return cmp.Compare(strings.ToLower(x), strings.ToLower(y))
			})
		})
		return
	}
	slices.SortStableFunc(rows, func(a, b *model.Entry) int {
		va, oka := s.number(a, col)
		vb, okb := s.number(b, col)
		return orderMissingLast(va, oka, vb, okb, s.Sort.Desc, cmp.Compare[float64])
	})
}

func (s Sorter) number(e *model.Entry, col string) (float64, bool) {
	if col == ColumnRank {
		r, ok := s.Static[e.ID]
		return float64(r), ok
	}
	if col == ColumnScore && s.Score != nil {
		return s.Score(e)
	}
	if key, ok := strings.CutPrefix(col, "evaluations."); ok {
		return e.EvaluationScore(key, s.Raw)
	}
	return e.Number(col)
}

func orderMissingLast[T any](a T, oka bool, b T, okb bool, desc bool, compare func(T, T) int) int {
	switch {
	case !oka && !okb:
		return 0
	case !oka:
		return 1
	case !okb:
		return -1
	}
	c := compare(a, b)
	if desc {
		return -c
	}
	return c
}

// Lift moves pinned rows to the front in pin order. Other rows keep their
// relative order and pinned ids with no matching row are ignored.
func Lift[T any](rows []T, id func(T) string, pinned []string) []T {
	if len(pinned) == 0 {
		return rows
	}
	pos := make(map[string]int, len(rows))
	for i, r := range rows {
		pos[id(r)] = i
	}
	out := make([]T, 0, len(rows))
	lifted := make(map[int]bool, len(pinned))
	for _, p := range pinned {
		i, ok := pos[p]
		if !ok || lifted[i] {
			continue
		}
		lifted[i] = true
		out = append(out, rows[i])
	}
	for i, r := range rows {
		if !lifted[i] {
			out = append(out, r)
		}
	}
	return out
}
