package urlsync

import (
	"net/url"
	"reflect"
	"testing"

	"github.com/rubiojr/leaderboard/pkg/filter"
	"github.com/rubiojr/leaderboard/pkg/ranking"
	"github.com/rubiojr/leaderboard/pkg/store"
)

func hydrate(t *testing.T, raw string) store.State {
	t.Helper()
	q, err := url.ParseQuery(raw)
	if err != nil {
		t.Fatalf("ParseQuery(%q): %v", raw, err)
	}
	st := store.NewState()
	actions, _ := Hydrate(q)
	for _, a := range actions {
		st, err = store.Reduce(st, a)
		if err != nil {
			t.Fatalf("Reduce(%s): %v", a.Type(), err)
		}
	}
	return st
}

func TestHydrateAbsentKeepsDefaults(t *testing.T) {
	actions, dropped := Hydrate(url.Values{"page": {"2"}})
	if len(actions) != 0 || len(dropped) != 0 {
		t.Fatalf("unrelated params produced %v / %v", actions, dropped)
	}
}

func TestHydrate(t *testing.T) {
	st := hydrate(t, "search=mistral&params=3,7&filters=is_moe,is_flagged&precision=float16&types=chat,merge"+
		"&official=true&pinned=b,a&columns=evaluations.english_average&rowSize=large&scoreDisplay=raw"+
		"&averageMode=visible&rankingMode=dynamic")

	f := st.Filters
	if f.Search != "mistral" || f.ParamsRange != (filter.Range{Min: 3, Max: 7}) || !f.OfficialProviderActive {
		t.Errorf("filters = %+v", f)
	}
	if !reflect.DeepEqual(f.BooleanFilters, []filter.Flag{filter.FlagMoE, filter.FlagFlagged}) {
		t.Errorf("booleanFilters = %v", f.BooleanFilters)
	}
	if !reflect.DeepEqual(f.Precisions, []string{"float16"}) || !reflect.DeepEqual(f.Types, []string{"chat", "merge"}) {
		t.Errorf("selections = %v %v", f.Precisions, f.Types)
	}
	if !reflect.DeepEqual(st.Pinned, []string{"b", "a"}) {
		t.Errorf("pinned = %v", st.Pinned)
	}
	d := st.Display
	if d.RowSize != "large" || d.ScoreDisplay != "raw" || d.AverageMode != "visible" || d.RankingMode != ranking.ModeDynamic {
		t.Errorf("display = %+v", d)
	}
	wantCols := append(append([]string{}, store.FixedColumns...), "evaluations.english_average")
	if !reflect.DeepEqual(d.VisibleColumns, wantCols) {
		t.Errorf("columns = %v", d.VisibleColumns)
	}
}

func TestHydrateMalformed(t *testing.T) {
	tests := []struct {
		name  string
		query string
		param string
	}{
		{"range arity", "params=1,2,3", ParamParams},
		{"range text", "params=a,b", ParamParams},
		{"inverted range", "params=10,2", ParamParams},
		{"unknown flag", "filters=is_shiny", ParamFilters},
		{"unknown type", "types=diffusion", ParamTypes},
		{"official", "official=maybe", ParamOfficial},
		{"row size", "rowSize=huge", ParamRowSize},
		{"ranking mode", "rankingMode=random", ParamRankingMode},
		{"column", "columns=password", ParamColumns},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			_, dropped := Hydrate(q)
			if len(dropped) != 1 || dropped[0].Param != tt.param {
				t.Fatalf("dropped = %+v", dropped)
			}
			st := hydrate(t, tt.query)
			if st.Filters.ParamsRange != filter.SentinelRange || st.Display.RowSize != store.RowSizeNormal ||
				st.Display.RankingMode != ranking.ModeStatic || st.Filters.OfficialProviderActive {
				t.Fatalf("malformed value overrode a default: %+v %+v", st.Filters, st.Display)
			}
		})
	}
}

func TestHydrateKeepsValidItems(t *testing.T) {
	st := hydrate(t, "filters=is_moe,bogus&types=chat,bogus")
	if !reflect.DeepEqual(st.Filters.BooleanFilters, []filter.Flag{filter.FlagMoE}) {
		t.Errorf("booleanFilters = %v", st.Filters.BooleanFilters)
	}
	if !reflect.DeepEqual(st.Filters.Types, []string{"chat"}) {
		t.Errorf("types = %v", st.Filters.Types)
	}
}

func TestEncodeDefaultsAreEmpty(t *testing.T) {
	if q := Encode(store.NewState()); len(q) != 0 {
		t.Fatalf("default state encoded to %v", q)
	}
	st := hydrate(t, "precision=4bit,float16,bfloat16&rowSize=normal")
	if q := Encode(st); len(q) != 0 {
		t.Fatalf("default-equal values must collapse, got %v", q)
	}
}

func TestRoundTrip(t *testing.T) {
	queries := []string{
		"search=qwen%3B%40license%3Amit",
		"params=0,3",
		"params=7.5,65",
		"filters=is_highlighted_by_maintainer",
		"precision=",
		"precision=4bit",
		"types=pretrained,chat",
		"official=true",
		"pinned=x,y,z",
		"columns=evaluations.english_average,metadata.params_billions",
		"rankingMode=dynamic&averageMode=visible",
	}
	for _, raw := range queries {
		t.Run(raw, func(t *testing.T) {
			st := hydrate(t, raw)
			encoded := Encode(st)
			again := hydrate(t, encoded.Encode())
			if !again.Filters.Equal(st.Filters) {
				t.Errorf("filters differ: %+v vs %+v", again.Filters, st.Filters)
			}
			if !again.Display.Equal(st.Display) {
				t.Errorf("display differs: %+v vs %+v", again.Display, st.Display)
			}
			if !reflect.DeepEqual(again.Pinned, st.Pinned) {
				t.Errorf("pinned differs: %v vs %v", again.Pinned, st.Pinned)
			}
			if got := Encode(again); !reflect.DeepEqual(got, encoded) {
				t.Errorf("encoding not stable: %v vs %v", got, encoded)
			}
		})
	}
}

func TestEmptyPrecisionIsPresent(t *testing.T) {
	st := hydrate(t, "precision=")
	if len(st.Filters.Precisions) != 0 {
		t.Fatalf("precisions = %v", st.Filters.Precisions)
	}
	q := Encode(st)
	if !q.Has(ParamPrecision) || q.Get(ParamPrecision) != "" {
		t.Fatalf("empty selection must encode as an empty parameter: %v", q)
	}
}

func TestProject(t *testing.T) {
	current := url.Values{"tab": {"about"}, ParamSearch: {"old"}}
	st := hydrate(t, "search=old&rowSize=large")

	next, changed := Project(current, st)
	if !changed {
		t.Fatal("expected rowSize to be written")
	}
	want := url.Values{"tab": {"about"}, ParamSearch: {"old"}, ParamRowSize: {"large"}}
	if !reflect.DeepEqual(next, want) {
		t.Fatalf("Project = %v, want %v", next, want)
	}
	if current.Has(ParamRowSize) {
		t.Fatal("Project modified its input")
	}

	same, changed := Project(next, st)
	if changed || !reflect.DeepEqual(same, next) {
		t.Fatal("projecting an unchanged state must be a no-op")
	}
}

func TestProjectDeletesDefaults(t *testing.T) {
	current, _ := url.ParseQuery("search=x&official=true&pinned=a&utm=1")
	st, _ := store.Reduce(hydrate(t, current.Encode()), store.ResetAll{})
	next, changed := Project(current, st)
	if !changed {
		t.Fatal("reset must change the URL")
	}
	if !reflect.DeepEqual(next, url.Values{"utm": {"1"}}) {
		t.Fatalf("after reset = %v", next)
	}
}
