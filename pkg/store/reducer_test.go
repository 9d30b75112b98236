package store

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/rubiojr/leaderboard/pkg/filter"
	"github.com/rubiojr/leaderboard/pkg/ranking"
)

func mustReduce(t *testing.T, st State, actions ...Action) State {
	t.Helper()
	for _, a := range actions {
		var err error
		st, err = Reduce(st, a)
		if err != nil {
			t.Fatalf("Reduce(%s): %v", a.Type(), err)
		}
	}
	return st
}

func mustReduceWith(t *testing.T, d *Deriver, st State, actions ...Action) State {
	t.Helper()
	for _, a := range actions {
		var err error
		st, err = ReduceWith(d, st, a)
		if err != nil {
			t.Fatalf("ReduceWith(%s): %v", a.Type(), err)
		}
	}
	return st
}

func TestInitialLoading(t *testing.T) {
	st := NewState()
	if !st.Loading() {
		t.Fatal("state without counts must report loading")
	}
	st = mustReduce(t, st, SetLoading{Loading: true}, SetModels{Dataset: testDataset()})
	if st.Loading() {
		t.Fatal("loading should clear once models and counts are in")
	}
	st = mustReduce(t, st, SetLoading{Loading: true})
	if !st.Loading() {
		t.Fatal("fetching must report loading")
	}
}

func TestSetModelsIdempotent(t *testing.T) {
	ds := testDataset()
	d := NewDeriver()
	st := mustReduceWith(t, d, NewState(), SetModels{Dataset: ds})
	if n := d.Computations(); n != 1 {
		t.Fatalf("expected one counting pass, got %d", n)
	}
	again := mustReduceWith(t, d, st, SetModels{Dataset: ds})
	if again.Rev.Dataset != st.Rev.Dataset {
		t.Fatal("same dataset pointer must not replace the dataset")
	}
	if d.Computations() != 1 {
		t.Fatal("same dataset pointer must not recount")
	}
	if !reflect.DeepEqual(again.Counts, st.Counts) {
		t.Fatal("counts changed on identical payload")
	}
}

func TestFilterChangesDoNotRecount(t *testing.T) {
	d := NewDeriver()
	st := mustReduceWith(t, d, NewState(), SetModels{Dataset: testDataset()})
	st = mustReduceWith(t, d, st,
		SetFilter{Key: FilterPrecisions, Value: []string{"float16"}},
		SetFilter{Key: FilterSearch, Value: "org"},
		SetDisplayOption{Key: KeyRankingMode, Value: "dynamic"},
		ResetFilters{},
	)
	if n := d.Computations(); n != 1 {
		t.Fatalf("filter or display changes triggered counting passes: %d", n)
	}
	if st.Counts.Normal.Type("chat") != 1 {
		t.Fatalf("counts lost: %+v", st.Counts.Normal)
	}
}

func TestNewDatasetRecounts(t *testing.T) {
	d := NewDeriver()
	st := mustReduceWith(t, d, NewState(), SetModels{Dataset: testDataset()})
	next := mustReduceWith(t, d, st, SetModels{Dataset: testDataset()})
	if n := d.Computations(); n != 2 {
		t.Fatalf("a new dataset pointer must be counted, passes = %d", n)
	}
	if next.Rev.Dataset == st.Rev.Dataset {
		t.Fatal("dataset revision not bumped")
	}
}

func TestDeriverSharedAndObserved(t *testing.T) {
	d := NewDeriver()
	var seen []int
	stop := d.Observe(func(entries int, took time.Duration) { seen = append(seen, entries) })

	ds := testDataset()
	a := New(WithDeriver(d))
	b := New(WithDeriver(d))
	if err := a.Dispatch(SetModels{Dataset: ds}); err != nil {
		t.Fatal(err)
	}
	if err := b.Dispatch(SetModels{Dataset: ds}); err != nil {
		t.Fatal(err)
	}
	if d.Computations() != 1 || !reflect.DeepEqual(seen, []int{3}) {
		t.Fatalf("shared deriver passes = %d, observed = %v", d.Computations(), seen)
	}
	if b.State().Counts.Normal.Type("chat") != 1 {
		t.Errorf("second store missing counts: %+v", b.State().Counts.Normal)
	}

	// Separate stores keep separate caches.
	other := New()
	if err := other.Dispatch(SetModels{Dataset: ds}); err != nil {
		t.Fatal(err)
	}
	if other.Deriver() == d || other.Deriver().Computations() != 1 {
		t.Errorf("default store deriver not private")
	}

	stop()
	if err := a.Dispatch(SetModels{Dataset: testDataset()}); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 1 {
		t.Errorf("observer called after removal: %v", seen)
	}
	if d.Computations() != 2 {
		t.Errorf("passes = %d", d.Computations())
	}
}

func TestStaticRanksOnLoad(t *testing.T) {
	st := loaded()
	want := map[string]int{"2": 1, "3": 2, "1": 3}
	if !reflect.DeepEqual(st.StaticRanks, want) {
		t.Fatalf("StaticRanks = %v, want %v", st.StaticRanks, want)
	}
}

func TestSetFilterValidation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
		err   error
	}{
		{"unknown key", "colour", "red", ErrUnknownKey},
		{"search type", FilterSearch, 42, ErrInvalidValue},
		{"unknown type", FilterTypes, []string{"diffusion"}, ErrInvalidValue},
		{"bad flag", FilterBooleanFilters, []string{"is_for_edge_devices"}, ErrInvalidValue},
		{"min above max", FilterParamsRange, []float64{10, 3}, ErrInvalidValue},
		{"range arity", FilterParamsRange, []float64{1}, ErrInvalidValue},
		{"official type", FilterOfficial, "yes", ErrInvalidValue},
		{"empty precision", FilterPrecisions, []string{""}, ErrInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := loaded()
			next, err := Reduce(st, SetFilter{Key: tt.key, Value: tt.value})
			if !errors.Is(err, tt.err) {
				t.Fatalf("err = %v, want %v", err, tt.err)
			}
			if !next.Filters.Equal(st.Filters) || next.Rev != st.Rev {
				t.Fatal("rejected action changed the state")
			}
		})
	}
}

func TestSetFilterValues(t *testing.T) {
	st := mustReduce(t, loaded(),
		SetFilter{Key: FilterParamsRange, Value: []any{3.004, 7.0}},
		SetFilter{Key: FilterBooleanFilters, Value: []any{"is_moe", "is_moe", "is_flagged"}},
		SetFilter{Key: FilterTypes, Value: []string{"chat"}},
		SetFilter{Key: FilterOfficial, Value: true},
	)
	f := st.Filters
	if f.ParamsRange != (filter.Range{Min: 3, Max: 7}) {
		t.Errorf("range = %+v", f.ParamsRange)
	}
	if !reflect.DeepEqual(f.BooleanFilters, []filter.Flag{filter.FlagMoE, filter.FlagFlagged}) {
		t.Errorf("boolean filters = %v", f.BooleanFilters)
	}
	if !reflect.DeepEqual(f.Types, []string{"chat"}) || !f.OfficialProviderActive {
		t.Errorf("filters = %+v", f)
	}
}

func TestDisplayOptions(t *testing.T) {
	st := mustReduce(t, loaded(),
		SetDisplayOption{Key: KeyRowSize, Value: "large"},
		SetDisplayOption{Key: KeyVisibleColumns, Value: []string{"evaluations.english_average", "bogus column", "rank"}},
	)
	if st.Display.RowSize != RowSizeLarge {
		t.Errorf("rowSize = %q", st.Display.RowSize)
	}
	want := append(append([]string{}, FixedColumns...), "evaluations.english_average")
	if !reflect.DeepEqual(st.Display.VisibleColumns, want) {
		t.Errorf("visibleColumns = %v, want %v", st.Display.VisibleColumns, want)
	}
	if _, err := Reduce(st, SetDisplayOption{Key: KeyScoreDisplay, Value: "percent"}); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue, got %v", err)
	}
	if _, err := Reduce(st, SetDisplayOption{Key: "theme", Value: "dark"}); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("expected ErrUnknownKey, got %v", err)
	}
}

func TestTogglePinned(t *testing.T) {
	st := mustReduce(t, loaded(), TogglePinned{ID: "2"}, TogglePinned{ID: "1"})
	if !reflect.DeepEqual(st.Pinned, []string{"2", "1"}) {
		t.Fatalf("pinned = %v", st.Pinned)
	}
	prev := st.Pinned
	st = mustReduce(t, st, TogglePinned{ID: "2"})
	if !reflect.DeepEqual(st.Pinned, []string{"1"}) {
		t.Fatalf("pinned after unpin = %v", st.Pinned)
	}
	if !reflect.DeepEqual(prev, []string{"2", "1"}) {
		t.Fatal("toggle mutated the previous pinned slice")
	}
}

func TestResetFiltersKeepsDisplayAndPins(t *testing.T) {
	st := mustReduce(t, loaded(),
		SetFilter{Key: FilterSearch, Value: "qwen"},
		SetDisplayOption{Key: KeyRankingMode, Value: "dynamic"},
		TogglePinned{ID: "3"},
		ResetFilters{},
	)
	if st.Filters.HasActive() {
		t.Errorf("filters not reset: %+v", st.Filters)
	}
	if st.Display.RankingMode != ranking.ModeDynamic {
		t.Errorf("display was reset")
	}
	if !reflect.DeepEqual(st.Pinned, []string{"3"}) {
		t.Errorf("pins were reset: %v", st.Pinned)
	}
}

func TestResetAll(t *testing.T) {
	st := mustReduce(t, loaded(),
		SetFilter{Key: FilterSearch, Value: "qwen"},
		SetDisplayOption{Key: KeyRankingMode, Value: "dynamic"},
		TogglePinned{ID: "3"},
		ResetAll{},
	)
	if st.Filters.HasActive() || !st.Display.Equal(DefaultDisplay()) || len(st.Pinned) != 0 {
		t.Fatalf("ResetAll left state behind: %+v %+v %v", st.Filters, st.Display, st.Pinned)
	}
	if !st.CountsReady || st.Dataset == nil {
		t.Fatal("ResetAll must not drop the dataset")
	}
}

func TestErrorState(t *testing.T) {
	boom := errors.New("fetch failed")
	st := mustReduce(t, loaded(), SetLoading{Loading: true}, SetError{Err: boom})
	if st.Err != boom || st.Fetching {
		t.Fatalf("error state = %v fetching=%v", st.Err, st.Fetching)
	}
	st = mustReduce(t, st, SetModels{Dataset: st.Dataset})
	if st.Err != nil {
		t.Fatal("a successful load clears the error")
	}
}

func TestPresetAndSort(t *testing.T) {
	st := mustReduce(t, loaded(), ApplyPreset{ID: "edge_device"}, SetSort{Sort: ranking.Sort{Column: "id"}})
	if st.Filters.ParamsRange != (filter.Range{Min: 0, Max: 3}) {
		t.Errorf("preset range = %+v", st.Filters.ParamsRange)
	}
	if st.Sort.Column != "id" || st.Sort.Desc {
		t.Errorf("sort = %+v", st.Sort)
	}
	if _, err := Reduce(st, ApplyPreset{ID: "nope"}); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("expected ErrUnknownKey, got %v", err)
	}
	if _, err := Reduce(st, SetSort{Sort: ranking.Sort{Column: "nope"}}); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue for an unknown sort column, got %v", err)
	}
	if _, err := Reduce(st, nil); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("expected ErrUnknownAction, got %v", err)
	}
}

func TestToggleOfficial(t *testing.T) {
	st := mustReduce(t, loaded(), ToggleOfficialProvider{}, ToggleFiltersExpanded{})
	if !st.Filters.OfficialProviderActive || !st.FiltersExpanded {
		t.Fatalf("toggles not applied: %+v", st)
	}
	st = mustReduce(t, st, ToggleOfficialProvider{})
	if st.Filters.OfficialProviderActive {
		t.Fatal("second toggle should turn official mode off")
	}
}
