package filter

// Preset is a one-click filter toggle.
type Preset struct {
	ID          string
	Label       string
	Description string
	// Bucket names the parameter bucket the preset corresponds to in the
	// count tables. Empty for non-size presets.
	Bucket   string
	Range    Range
	Official bool
}

var presets = []Preset{
	{
		ID: "edge_device", Label: "For Edge Devices", Bucket: "edge",
		Description: "Tiny models: Up to 3B parameters",
		Range:       Range{Min: 0, Max: 3},
	},
	{
		ID: "small_models", Label: "For Consumers", Bucket: "small",
		Description: "Smol-LMs: 3-7B parameters",
		Range:       Range{Min: 3, Max: 7},
	},
	{
		ID: "medium_models", Label: "Mid-range", Bucket: "medium",
		Description: "Mid-range models: 7B-65B parameters",
		Range:       Range{Min: 7, Max: 65},
	},
	{
		ID: "large_models", Label: "For the GPU-rich", Bucket: "large",
		Description: "Big models: 65B+ parameters",
		Range:       Range{Min: 65, Max: 141},
	},
	{
		ID: "official_providers", Label: "Only Official Providers",
		Description: "Officially provided models",
		Official:    true,
	},
}

func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

func LookupPreset(id string) (Preset, bool) {
	for _, p := range presets {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}

// Active reports whether the preset is currently applied in s.
func (p Preset) Active(s State) bool {
	if p.Official {
		return s.OfficialProviderActive
	}
	return s.ParamsRange == p.Range
}

// Toggle applies the preset to s, or undoes it when already active.
func (p Preset) Toggle(s State) State {
	out := s.Clone()
	switch {
	case p.Official:
		out.OfficialProviderActive = !s.OfficialProviderActive
	case p.Active(s):
		out.ParamsRange = SentinelRange
	default:
		out.ParamsRange = p.Range
	}
	return out
}
