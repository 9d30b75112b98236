package store

import (
	"slices"

	"github.com/rubiojr/leaderboard/pkg/filter"
	"github.com/rubiojr/leaderboard/pkg/ranking"
)

const (
	RowSizeNormal = "normal"
	RowSizeLarge  = "large"

	ScoreNormalized = "normalized"
	ScoreRaw        = "raw"

	AverageAll     = "all"
	AverageVisible = "visible"
)

// Display options keys.
const (
	KeyRowSize        = "rowSize"
	KeyScoreDisplay   = "scoreDisplay"
	KeyAverageMode    = "averageMode"
	KeyRankingMode    = "rankingMode"
	KeyVisibleColumns = "visibleColumns"
)

// DisplayOptions lists the accepted values for each enumerated display key.
var DisplayOptions = map[string][]string{
	KeyRowSize:      {RowSizeNormal, RowSizeLarge},
	KeyScoreDisplay: {ScoreNormalized, ScoreRaw},
	KeyAverageMode:  {AverageAll, AverageVisible},
	KeyRankingMode:  {string(ranking.ModeStatic), string(ranking.ModeDynamic)},
}

// Display holds presentation options.
type Display struct {
	RowSize        string       `json:"rowSize"`
	ScoreDisplay   string       `json:"scoreDisplay"`
	AverageMode    string       `json:"averageMode"`
	RankingMode    ranking.Mode `json:"rankingMode"`
	VisibleColumns []string     `json:"visibleColumns"`
}

func DefaultDisplay() Display {
	return Display{
		RowSize:        RowSizeNormal,
		ScoreDisplay:   ScoreNormalized,
		AverageMode:    AverageAll,
		RankingMode:    ranking.ModeStatic,
		VisibleColumns: DefaultColumns(),
	}
}

func (d Display) Clone() Display {
	c := d
	c.VisibleColumns = slices.Clone(d.VisibleColumns)
	return c
}

// Equal compares two displays. Column sets compare as sets.
func (d Display) Equal(o Display) bool {
	return d.RowSize == o.RowSize &&
		d.ScoreDisplay == o.ScoreDisplay &&
		d.AverageMode == o.AverageMode &&
		d.RankingMode == o.RankingMode &&
		filter.SameSet(d.VisibleColumns, o.VisibleColumns)
}
