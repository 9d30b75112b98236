package api

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rubiojr/leaderboard/pkg/model"
	"github.com/rubiojr/leaderboard/pkg/realtime"
	"github.com/rubiojr/leaderboard/pkg/store"
)

func entry(id, precision, typ string, params model.Params, score float64, official bool) model.Entry {
	return model.Entry{
		ID:       id,
		Model:    model.Info{Name: "org/" + id, Precision: precision, Type: typ, AverageScore: &score},
		Features: model.Features{IsHighlightedByMaintainer: official},
		Metadata: model.Metadata{ParamsBillions: params},
	}
}

func testDataset() *model.Dataset {
	return model.NewDataset([]model.Entry{
		entry("alpha", "float16", "chat", 7, 70, true),
		entry("beta", "bfloat16", "pretrained", 70, 60, false),
		entry("gamma", "float16", "fine-tuned", 2, 50, false),
	})
}

func setupTestAPIServer(t *testing.T) (*Server, *store.Store, *httptest.Server) {
	t.Helper()
	base := store.New()
	if err := base.Dispatch(store.SetModels{Dataset: testDataset()}); err != nil {
		t.Fatal(err)
	}
	srv, err := NewServer(base, realtime.NewHub(0), Options{
		PinnedBypass: true,
		Timings:      store.Timings{Search: 10 * time.Millisecond, Range: 10 * time.Millisecond, ToggleWindow: 50 * time.Millisecond},
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return srv, base, ts
}

func getJSON(t *testing.T, rawURL string, into any) *http.Response {
	t.Helper()
	resp, err := http.Get(rawURL)
	if err != nil {
		t.Fatalf("GET %s: %v", rawURL, err)
	}
	defer resp.Body.Close()
	if into != nil {
		if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
			t.Fatalf("decoding %s: %v", rawURL, err)
		}
	}
	return resp
}

func rowIDs(rows []map[string]any) []string {
	var ids []string
	for _, r := range rows {
		ids = append(ids, r["id"].(string))
	}
	return ids
}

type leaderboardBody struct {
	Query   string           `json:"query"`
	Loading bool             `json:"loading"`
	Rows    []map[string]any `json:"rows"`
	Summary struct {
		Total    int `json:"total"`
		Matching int `json:"matching"`
		Pinned   int `json:"pinned"`
	} `json:"summary"`
	Dropped []map[string]string `json:"dropped"`
}

func TestHandleLeaderboard(t *testing.T) {
	_, _, ts := setupTestAPIServer(t)

	tests := []struct {
		name     string
		query    string
		wantIDs  []string
		wantQ    string
		matching int
	}{
		{"defaults", "", []string{"alpha", "beta", "gamma"}, "", 3},
		{"search", "search=gam", []string{"gamma"}, "search=gam", 1},
		{"official", "official=true", []string{"alpha"}, "official=true", 1},
		{"pinned bypasses filters", "search=gam&pinned=beta", []string{"beta", "gamma"}, "pinned=beta&search=gam", 1},
		{"sort ascending", "sort=model.average_score&desc=false", []string{"gamma", "beta", "alpha"}, "desc=false&sort=model.average_score", 3},
		{"unrelated params kept", "page=2&rowSize=normal", []string{"alpha", "beta", "gamma"}, "page=2", 3},
		{"limit", "limit=1", []string{"alpha"}, "limit=1", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body leaderboardBody
			resp := getJSON(t, ts.URL+"/api/leaderboard?"+tt.query, &body)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			got := rowIDs(body.Rows)
			if strings.Join(got, ",") != strings.Join(tt.wantIDs, ",") {
				t.Errorf("rows = %v, want %v", got, tt.wantIDs)
			}
			if body.Query != tt.wantQ {
				t.Errorf("query = %q, want %q", body.Query, tt.wantQ)
			}
			if body.Summary.Matching != tt.matching || body.Summary.Total != 3 {
				t.Errorf("summary = %+v", body.Summary)
			}
			if body.Loading {
				t.Error("loaded server reported loading")
			}
		})
	}
}

func TestHandleLeaderboardDropped(t *testing.T) {
	_, _, ts := setupTestAPIServer(t)

	var body leaderboardBody
	getJSON(t, ts.URL+"/api/leaderboard?rankingMode=sideways&sort=nope", &body)
	if len(body.Dropped) != 2 {
		t.Fatalf("dropped = %v", body.Dropped)
	}
	if body.Query != "sort=nope" {
		t.Errorf("query = %q", body.Query)
	}

	resp := getJSON(t, ts.URL+"/api/leaderboard?limit=-1", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("negative limit status = %d", resp.StatusCode)
	}
}

func TestUnavailableOnError(t *testing.T) {
	_, base, ts := setupTestAPIServer(t)
	if err := base.Dispatch(store.SetError{Err: errors.New("upstream down")}); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{"/api/leaderboard", "/api/leaderboard/counts", "/api/leaderboard/formatted", "/api/leaderboard/presets"} {
		var body ErrorResponse
		resp := getJSON(t, ts.URL+path, &body)
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("%s status = %d", path, resp.StatusCode)
		}
		if body.Message != "upstream down" {
			t.Errorf("%s message = %q", path, body.Message)
		}
	}

	var health HealthResponse
	resp := getJSON(t, ts.URL+"/health", &health)
	if resp.StatusCode != http.StatusOK || health.Status != "degraded" {
		t.Errorf("health = %d %+v", resp.StatusCode, health)
	}
}

func TestHandleCounts(t *testing.T) {
	_, _, ts := setupTestAPIServer(t)

	var body struct {
		Loading bool `json:"loading"`
		Normal  struct {
			ModelTypes      map[string]int `json:"modelTypes"`
			ParameterRanges map[string]int `json:"parameterRanges"`
		} `json:"normal"`
		OfficialOnly struct {
			Precisions map[string]int `json:"precisions"`
		} `json:"officialOnly"`
	}
	getJSON(t, ts.URL+"/api/leaderboard/counts", &body)
	if body.Loading {
		t.Error("loading")
	}
	if body.Normal.ModelTypes["chat"] != 1 || body.Normal.ParameterRanges["large"] != 1 {
		t.Errorf("normal = %+v", body.Normal)
	}
	if body.OfficialOnly.Precisions["float16"] != 1 || body.OfficialOnly.Precisions["bfloat16"] != 0 {
		t.Errorf("officialOnly = %+v", body.OfficialOnly)
	}
}

func TestHandleFormattedGzip(t *testing.T) {
	_, _, ts := setupTestAPIServer(t)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/leaderboard/formatted", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	resp, err := http.DefaultTransport.RoundTrip(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var r io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			t.Fatal(err)
		}
		r = zr
	}
	ds, err := model.Decode(r)
	if err != nil {
		t.Fatalf("decoding formatted: %v", err)
	}
	if ds.Len() != 3 {
		t.Errorf("entries = %d", ds.Len())
	}
}

func TestHandlePresets(t *testing.T) {
	_, _, ts := setupTestAPIServer(t)

	var presets []PresetResponse
	getJSON(t, ts.URL+"/api/leaderboard/presets?"+url.Values{"params": {"0,3"}}.Encode(), &presets)
	if len(presets) != 5 {
		t.Fatalf("presets = %d", len(presets))
	}
	byID := map[string]PresetResponse{}
	for _, p := range presets {
		byID[p.ID] = p
	}
	if !byID["edge_device"].Active || byID["small_models"].Active {
		t.Errorf("active flags = %+v", presets)
	}
	if c := byID["edge_device"].Count; c == nil || *c != 1 {
		t.Errorf("edge count = %v", c)
	}
	if c := byID["official_providers"].Count; c == nil || *c != 1 {
		t.Errorf("official count = %v", c)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	_, _, ts := setupTestAPIServer(t)

	var health HealthResponse
	resp := getJSON(t, ts.URL+"/health", &health)
	if health.Status != "ok" || health.Entries != 3 {
		t.Errorf("health = %+v", health)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing request id")
	}

	// Route metrics are recorded after the response is written.
	want := []string{
		`leaderboard_http_requests_total{code="200",route="GET /health"} 1`,
		"leaderboard_dataset_entries 3",
	}
	var body string
	for i := 0; i < 50; i++ {
		body = scrape(t, ts.URL)
		if containsAll(body, want) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("metrics missing %q in:\n%s", want, body)
}

func scrape(t *testing.T, base string) string {
	t.Helper()
	resp, err := http.Get(base + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func containsAll(s string, subs []string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}

func TestCountMetricsPerServer(t *testing.T) {
	first, second := store.New(), store.New()
	a, err := NewServer(first, nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewServer(second, nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	ts := httptest.NewServer(b.Handler())
	defer ts.Close()

	// Closing one server must not detach the other from its counts.
	a.Close()
	if err := first.Dispatch(store.SetModels{Dataset: testDataset()}); err != nil {
		t.Fatal(err)
	}
	if err := second.Dispatch(store.SetModels{Dataset: testDataset()}); err != nil {
		t.Fatal(err)
	}
	if body := scrape(t, ts.URL); !strings.Contains(body, MetricCountComputations+" 1") {
		t.Errorf("metrics missing %s 1 in:\n%s", MetricCountComputations, body)
	}
}

func TestBridgePublishesDataset(t *testing.T) {
	hub := realtime.NewHub(4)
	base := store.New()
	srv, err := NewServer(base, hub, Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer srv.Close()

	_, events := hub.Register()
	ds := testDataset()
	if err := base.Dispatch(store.SetModels{Dataset: ds}); err != nil {
		t.Fatal(err)
	}
	if ev := <-events; ev.Type != realtime.EventDataset || ev.Dataset != ds {
		t.Fatalf("event = %+v", ev)
	}
	if err := base.Dispatch(store.SetError{Err: errors.New("boom")}); err != nil {
		t.Fatal(err)
	}
	if ev := <-events; ev.Type != realtime.EventError || ev.Error != "boom" {
		t.Fatalf("event = %+v", ev)
	}

	// A revalidated refresh keeps the pointer but still clears the error.
	if err := base.Dispatch(store.SetModels{Dataset: ds}); err != nil {
		t.Fatal(err)
	}
	if ev := <-events; ev.Type != realtime.EventDataset || ev.Dataset != ds {
		t.Fatalf("recovery event = %+v", ev)
	}
}
