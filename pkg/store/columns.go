package store

import "strings"

// FixedColumns are always visible and always come first.
var FixedColumns = []string{
	"isPinned",
	"rank",
	"model_type",
	"id",
	"model.average_score",
}

// EvaluationColumns are the per-category score columns.
var EvaluationColumns = []string{
	"evaluations.vision_average",
	"evaluations.audio_average",
	"evaluations.english_average",
	"evaluations.chinese_average",
	"evaluations.japanese_average",
	"evaluations.spanish_average",
	"evaluations.greek_average",
	"evaluations.bilingual_average",
	"evaluations.multilingual_average",
}

// MetadataColumns can be shown on demand.
var MetadataColumns = []string{
	"model.precision",
	"model.architecture",
	"model.weight_type",
	"metadata.params_billions",
	"metadata.hub_license",
	"metadata.hub_hearts",
	"metadata.base_model",
	"metadata.upload_date",
	"metadata.submission_date",
	"metadata.generation",
	"metadata.co2_cost",
	"features.is_moe",
	"features.is_merged",
	"features.is_flagged",
	"features.is_not_available_on_hub",
	"features.is_highlighted_by_maintainer",
}

// DefaultColumns is the initial visible column set.
func DefaultColumns() []string {
	out := make([]string, 0, len(FixedColumns)+len(EvaluationColumns))
	out = append(out, FixedColumns...)
	return append(out, EvaluationColumns...)
}

var knownColumns = func() map[string]bool {
	m := map[string]bool{}
	for _, set := range [][]string{FixedColumns, EvaluationColumns, MetadataColumns} {
		for _, c := range set {
			m[c] = true
		}
	}
	return m
}()

// IsColumn reports whether c names a column. Any evaluations.<key> column
// is accepted.
func IsColumn(c string) bool {
	if knownColumns[c] {
		return true
	}
	key, ok := strings.CutPrefix(c, "evaluations.")
	return ok && key != "" && !strings.ContainsAny(key, ". ")
}

// IsFixedColumn reports whether c can not be hidden.
func IsFixedColumn(c string) bool {
	for _, f := range FixedColumns {
		if f == c {
			return true
		}
	}
	return false
}

// NormalizeColumns puts the fixed columns first, then the given columns in
// order, dropping duplicates and unknown names.
func NormalizeColumns(cols []string) []string {
	out := make([]string, 0, len(FixedColumns)+len(cols))
	out = append(out, FixedColumns...)
	seen := make(map[string]bool, len(out)+len(cols))
	for _, c := range out {
		seen[c] = true
	}
	for _, c := range cols {
		if seen[c] || !IsColumn(c) {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
