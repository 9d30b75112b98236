package filter

import "testing"

func TestPresetToggle(t *testing.T) {
	p, ok := LookupPreset("small_models")
	if !ok {
		t.Fatal("small_models preset missing")
	}
	s := DefaultState()
	s = p.Toggle(s)
	if s.ParamsRange != (Range{3, 7}) || !p.Active(s) {
		t.Fatalf("expected [3,7) after toggle, got %+v", s.ParamsRange)
	}
	s = p.Toggle(s)
	if !s.ParamsRange.IsSentinel() {
		t.Fatalf("second toggle should restore sentinel, got %+v", s.ParamsRange)
	}
}

func TestPresetSwitchesRange(t *testing.T) {
	small, _ := LookupPreset("small_models")
	large, _ := LookupPreset("large_models")
	s := large.Toggle(small.Toggle(DefaultState()))
	if s.ParamsRange != (Range{65, 141}) {
		t.Fatalf("expected large range, got %+v", s.ParamsRange)
	}
	if small.Active(s) {
		t.Fatalf("small preset should no longer be active")
	}
}

func TestOfficialPreset(t *testing.T) {
	p, _ := LookupPreset("official_providers")
	s := p.Toggle(DefaultState())
	if !s.OfficialProviderActive || !s.ParamsRange.IsSentinel() {
		t.Fatalf("official preset should only toggle official mode: %+v", s)
	}
	if p.Toggle(s).OfficialProviderActive {
		t.Fatalf("official preset should toggle off")
	}
}

func TestPresetsUnknown(t *testing.T) {
	if _, ok := LookupPreset("tiny"); ok {
		t.Fatal("unexpected preset")
	}
	if len(Presets()) != 5 {
		t.Fatalf("expected 5 presets, got %d", len(Presets()))
	}
}
