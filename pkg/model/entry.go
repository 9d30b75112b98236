package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Entry is one evaluated model row.
type Entry struct {
	ID          string                `json:"id"`
	Model       Info                  `json:"model"`
	Evaluations map[string]Evaluation `json:"evaluations,omitempty"`
	Features    Features              `json:"features"`
	Metadata    Metadata              `json:"metadata"`
}

type Info struct {
	Name            string   `json:"name"`
	SHA             string   `json:"sha,omitempty"`
	Precision       string   `json:"precision"`
	Type            string   `json:"type"`
	WeightType      string   `json:"weight_type,omitempty"`
	Architecture    string   `json:"architecture,omitempty"`
	AverageScore    *float64 `json:"average_score"`
	HasChatTemplate bool     `json:"has_chat_template,omitempty"`
}

type Evaluation struct {
	Name            string   `json:"name,omitempty"`
	Value           *float64 `json:"value"`
	NormalizedScore *float64 `json:"normalized_score"`
}

// Features holds the boolean flags the filter engine understands.
type Features struct {
	IsNotAvailableOnHub       bool `json:"is_not_available_on_hub"`
	IsMerged                  bool `json:"is_merged"`
	IsMoE                     bool `json:"is_moe"`
	IsFlagged                 bool `json:"is_flagged"`
	IsHighlightedByMaintainer bool `json:"is_highlighted_by_maintainer"`
}

type Metadata struct {
	UploadDate     string   `json:"upload_date,omitempty"`
	SubmissionDate string   `json:"submission_date,omitempty"`
	Generation     *int     `json:"generation,omitempty"`
	BaseModel      string   `json:"base_model,omitempty"`
	HubLicense     string   `json:"hub_license,omitempty"`
	HubHearts      *int     `json:"hub_hearts,omitempty"`
	ParamsBillions Params   `json:"params_billions"`
	CO2Cost        *float64 `json:"co2_cost,omitempty"`
}

// Params is a parameter count in billions. Values that are missing, null
// or not numeric are NaN.
type Params float64

// NaNParams is the value used for unknown parameter counts.
var NaNParams = Params(math.NaN())

func (p Params) Valid() bool {
	return !math.IsNaN(float64(p)) && !math.IsInf(float64(p), 0)
}

func (p Params) MarshalJSON() ([]byte, error) {
	if !p.Valid() {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(float64(p), 'f', -1, 64)), nil
}

func (p *Params) UnmarshalJSON(data []byte) error {
	*p = NaNParams
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	s := string(data)
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return nil
		}
		s = strings.TrimSpace(str)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	*p = Params(f)
	return nil
}

// UnmarshalJSON defaults a missing params_billions to NaN rather than zero.
func (e *Entry) UnmarshalJSON(data []byte) error {
	type plain Entry
	aux := plain{Metadata: Metadata{ParamsBillions: NaNParams}}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*e = Entry(aux)
	return nil
}

// Params returns the params count, rounded to two decimals.
func (e *Entry) Params() Params {
	p := e.Metadata.ParamsBillions
	if !p.Valid() {
		return NaNParams
	}
	return Params(math.Round(float64(p)*100) / 100)
}

// Score returns the average score, if the entry has one.
func (e *Entry) Score() (float64, bool) {
	if e.Model.AverageScore == nil || math.IsNaN(*e.Model.AverageScore) {
		return 0, false
	}
	return *e.Model.AverageScore, true
}

// EvaluationScore returns the normalized (or raw) score for an evaluation key.
func (e *Entry) EvaluationScore(key string, raw bool) (float64, bool) {
	ev, ok := e.Evaluations[key]
	if !ok {
		return 0, false
	}
	v := ev.NormalizedScore
	if raw {
		v = ev.Value
	}
	if v == nil || math.IsNaN(*v) {
		return 0, false
	}
	return *v, true
}

const evaluationsPrefix = "evaluations."

// Field resolves a dotted record path to its string value. Paths that do
// not exist report false.
func (e *Entry) Field(path string) (string, bool) {
	switch path {
	case "id":
		return e.ID, true
	case "model.name":
		return e.Model.Name, true
	case "model.sha":
		return e.Model.SHA, true
	case "model.precision":
		return e.Model.Precision, true
	case "model.type":
		return e.Model.Type, true
	case "model.weight_type":
		return e.Model.WeightType, true
	case "model.architecture":
		return e.Model.Architecture, true
	case "metadata.upload_date":
		return e.Metadata.UploadDate, true
	case "metadata.submission_date":
		return e.Metadata.SubmissionDate, true
	case "metadata.base_model":
		return e.Metadata.BaseModel, true
	case "metadata.hub_license":
		return e.Metadata.HubLicense, true
	}
	if v, ok := e.Number(path); ok {
		return strconv.FormatFloat(v, 'f', -1, 64), true
	}
	return "", false
}

// Number resolves a dotted record path to a numeric value. Evaluation
// paths resolve to the normalized score.
func (e *Entry) Number(path string) (float64, bool) {
	switch path {
	case "model.average_score":
		return e.Score()
	case "metadata.params_billions":
		p := e.Params()
		return float64(p), p.Valid()
	case "metadata.co2_cost":
		if e.Metadata.CO2Cost == nil {
			return 0, false
		}
		return *e.Metadata.CO2Cost, true
	case "metadata.hub_hearts":
		if e.Metadata.HubHearts == nil {
			return 0, false
		}
		return float64(*e.Metadata.HubHearts), true
	case "metadata.generation":
		if e.Metadata.Generation == nil {
			return 0, false
		}
		return float64(*e.Metadata.Generation), true
	}
	if key, ok := strings.CutPrefix(path, evaluationsPrefix); ok {
		return e.EvaluationScore(key, false)
	}
	return 0, false
}
