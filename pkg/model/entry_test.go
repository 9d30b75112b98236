package model

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

const sample = `[
  {
    "id": "mistral/7b_float16",
    "model": {"name": "mistral/7b", "precision": "float16", "type": "chat", "architecture": "MistralForCausalLM", "average_score": 61.25},
    "evaluations": {
      "english_average": {"name": "English", "value": 0.71, "normalized_score": 70.1},
      "vision_average": {"name": "Vision", "value": null, "normalized_score": null}
    },
    "features": {"is_moe": false, "is_highlighted_by_maintainer": true},
    "metadata": {"params_billions": 7.241, "hub_license": "apache-2.0", "hub_hearts": 120}
  },
  {
    "id": "acme/mix_4bit",
    "model": {"name": "acme/mix", "precision": "4bit", "type": "pretrained", "average_score": null},
    "features": {"is_moe": true},
    "metadata": {"params_billions": "46.7"}
  },
  {
    "id": "acme/broken",
    "model": {"name": "acme/broken", "precision": "bfloat16", "type": "merge"},
    "metadata": {"params_billions": "n/a"}
  },
  {
    "id": "acme/nometa",
    "model": {"name": "acme/nometa", "precision": "bfloat16", "type": "merge"}
  },
  {"id": "", "model": {"name": "anonymous"}},
  {"id": "acme/mix_4bit", "model": {"name": "duplicate"}}
]`

func decodeSample(t *testing.T) *Dataset {
	t.Helper()
	ds, err := Decode(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return ds
}

func TestDecode(t *testing.T) {
	ds := decodeSample(t)
	if ds.Len() != 4 {
		t.Fatalf("expected 4 entries, got %d", ds.Len())
	}
	if ds.Skipped() != 2 {
		t.Errorf("expected 2 skipped records, got %d", ds.Skipped())
	}
	e, ok := ds.Lookup("acme/mix_4bit")
	if !ok {
		t.Fatalf("expected acme/mix_4bit to resolve")
	}
	if e.Model.Name != "acme/mix" {
		t.Errorf("duplicate id replaced first entry: %q", e.Model.Name)
	}
	if _, ok := ds.Lookup("missing"); ok {
		t.Errorf("unexpected lookup hit")
	}
}

func TestParams(t *testing.T) {
	ds := decodeSample(t)
	tests := []struct {
		id    string
		want  float64
		valid bool
	}{
		{"mistral/7b_float16", 7.24, true},
		{"acme/mix_4bit", 46.7, true},
		{"acme/broken", 0, false},
		{"acme/nometa", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			e, _ := ds.Lookup(tt.id)
			p := e.Params()
			if p.Valid() != tt.valid {
				t.Fatalf("Valid() = %v, want %v (value %v)", p.Valid(), tt.valid, float64(p))
			}
			if tt.valid && float64(p) != tt.want {
				t.Errorf("Params() = %v, want %v", float64(p), tt.want)
			}
		})
	}
}

func TestParamsMarshal(t *testing.T) {
	data, err := json.Marshal(struct {
		A Params `json:"a"`
		B Params `json:"b"`
	}{Params(7.5), NaNParams})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"a":7.5,"b":null}` {
		t.Errorf("unexpected json %s", data)
	}
}

func TestField(t *testing.T) {
	ds := decodeSample(t)
	e, _ := ds.Lookup("mistral/7b_float16")

	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"id", "mistral/7b_float16", true},
		{"model.precision", "float16", true},
		{"model.architecture", "MistralForCausalLM", true},
		{"metadata.hub_license", "apache-2.0", true},
		{"metadata.hub_hearts", "120", true},
		{"evaluations.english_average", "70.1", true},
		{"evaluations.vision_average", "", false},
		{"nope", "", false},
	}
	for _, tt := range tests {
		got, ok := e.Field(tt.path)
		if ok != tt.ok || got != tt.want {
			t.Errorf("Field(%q) = %q, %v; want %q, %v", tt.path, got, ok, tt.want, tt.ok)
		}
	}
}

func TestScore(t *testing.T) {
	ds := decodeSample(t)
	e, _ := ds.Lookup("mistral/7b_float16")
	if s, ok := e.Score(); !ok || s != 61.25 {
		t.Errorf("Score() = %v, %v", s, ok)
	}
	e, _ = ds.Lookup("acme/mix_4bit")
	if _, ok := e.Score(); ok {
		t.Errorf("expected null score to be missing")
	}
	nan := math.NaN()
	e.Model.AverageScore = &nan
	if _, ok := e.Score(); ok {
		t.Errorf("expected NaN score to be missing")
	}
}

func TestNilDataset(t *testing.T) {
	var ds *Dataset
	if ds.Len() != 0 || ds.Entries() != nil {
		t.Fatalf("nil dataset should be empty")
	}
	if _, ok := ds.Lookup("x"); ok {
		t.Fatalf("nil dataset lookup should miss")
	}
}
