package api

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rubiojr/leaderboard/pkg/filter"
	"github.com/rubiojr/leaderboard/pkg/store"
	"github.com/rubiojr/leaderboard/pkg/urlsync"
	"github.com/rubiojr/leaderboard/pkg/version"
)

// Query parameters accepted besides the share URL mapping.
const (
	paramSort  = "sort"
	paramDesc  = "desc"
	paramLimit = "limit"
)

// hydrate reduces the request query over the base state. Rejected actions
// are reported as dropped parameters.
func (s *Server) hydrate(q url.Values) (store.State, []urlsync.Dropped) {
	st := s.base.State()
	actions, dropped := urlsync.Hydrate(q)
	for _, a := range actions {
		next, err := store.Reduce(st, a)
		if err != nil {
			s.log.Debugf("hydration skipped %s: %v", a.Type(), err)
			continue
		}
		st = next
	}

	if q.Has(paramSort) || q.Has(paramDesc) {
		sort := st.Sort
		if q.Has(paramSort) {
			sort.Column = q.Get(paramSort)
		}
		if q.Has(paramDesc) {
			desc, err := strconv.ParseBool(q.Get(paramDesc))
			if err != nil {
				dropped = append(dropped, urlsync.Dropped{Param: paramDesc, Value: q.Get(paramDesc)})
			} else {
				sort.Desc = desc
			}
		}
		if next, err := store.Reduce(st, store.SetSort{Sort: sort}); err != nil {
			dropped = append(dropped, urlsync.Dropped{Param: paramSort, Value: q.Get(paramSort)})
		} else {
			st = next
		}
	}
	return st, dropped
}

// unavailable writes a 503 while the last refresh is failed. The error
// clears with the next successful load.
func (s *Server) unavailable(w http.ResponseWriter, st store.State) bool {
	if st.Err != nil {
		s.writeError(w, http.StatusServiceUnavailable, "Dataset unavailable", st.Err.Error())
		return true
	}
	return false
}

func (s *Server) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	st, dropped := s.hydrate(q)
	if s.unavailable(w, st) {
		return
	}

	limit := 0
	if q.Has(paramLimit) {
		n, err := strconv.Atoi(q.Get(paramLimit))
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, "Invalid limit", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	res := store.BuildView(st, s.opts.PinnedBypass)
	rows := res.Rows
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	canonical, _ := urlsync.Project(q, st)

	s.writeJSON(w, http.StatusOK, LeaderboardResponse{
		Query:   canonical.Encode(),
		Loading: st.Loading(),
		Rows:    rows,
		Counts:  st.Counts,
		Summary: res.Summary,
		State:   newStateResponse(st),
		Dropped: dropped,
	})
}

func (s *Server) HandleCounts(w http.ResponseWriter, r *http.Request) {
	st := s.base.State()
	if s.unavailable(w, st) {
		return
	}
	s.writeJSON(w, http.StatusOK, CountsResponse{Loading: st.Loading(), Result: st.Counts})
}

func (s *Server) HandleFormatted(w http.ResponseWriter, r *http.Request) {
	st := s.base.State()
	if s.unavailable(w, st) {
		return
	}
	if st.Dataset == nil {
		s.writeError(w, http.StatusServiceUnavailable, "Dataset loading", "the dataset has not been loaded yet")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := st.Dataset.Encode(w); err != nil {
		s.log.Warnf("encoding dataset: %v", err)
	}
}

type PresetResponse struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Count       *int   `json:"count,omitempty"`
	Active      bool   `json:"active"`
}

// HandlePresets lists the quick filters with their counts. The active flag
// follows the state hydrated from the query string.
func (s *Server) HandlePresets(w http.ResponseWriter, r *http.Request) {
	st, _ := s.hydrate(r.URL.Query())
	if s.unavailable(w, st) {
		return
	}
	table := st.Counts.Active(st.Filters.OfficialProviderActive)

	out := make([]PresetResponse, 0, len(filter.Presets()))
	for _, p := range filter.Presets() {
		pr := PresetResponse{
			ID:          p.ID,
			Label:       p.Label,
			Description: p.Description,
			Active:      p.Active(st.Filters),
		}
		if st.CountsReady {
			n := table.Range(p.Bucket)
			if p.Official {
				n = table.MaintainersHighlight
			}
			pr.Count = &n
		}
		out = append(out, pr)
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.base.State()
	status, code := "ok", http.StatusOK
	switch {
	case st.Err != nil && st.Dataset == nil:
		status, code = "unavailable", http.StatusServiceUnavailable
	case st.Err != nil:
		status = "degraded"
	case st.Loading():
		status = "loading"
	}

	s.mu.Lock()
	sessions := s.sessions
	s.mu.Unlock()

	s.writeJSON(w, code, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Version:   version.APIVersion(),
		Entries:   st.Dataset.Len(),
		Loading:   st.Loading(),
		Sessions:  sessions,
	})
}
