// Package api serves the leaderboard over HTTP: stateless JSON queries
// hydrated from a share URL, and stateful websocket sessions.
package api

import (
	"bufio"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rubiojr/leaderboard/pkg/log"
	"github.com/rubiojr/leaderboard/pkg/realtime"
	"github.com/rubiojr/leaderboard/pkg/store"
)

// Options configures a Server.
type Options struct {
	Timings      store.Timings
	PinnedBypass bool
	Clock        clock.Clock
	// Registry receives the server metrics. A nil registry creates a
	// private one.
	Registry *prometheus.Registry
}

type Server struct {
	base    *store.Store
	hub     *realtime.Hub
	opts    Options
	metrics *Metrics
	reg     *prometheus.Registry
	log     *log.Logger

	upgrader websocket.Upgrader

	mu        sync.Mutex
	sessions  int
	unsub     func()
	unobserve func()
}

// NewServer serves base, the store fed by the refresher. Dataset changes in
// base are published on hub for live sessions.
func NewServer(base *store.Store, hub *realtime.Hub, opts Options) (*Server, error) {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Timings == (store.Timings{}) {
		opts.Timings = store.DefaultTimings
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	if hub == nil {
		hub = realtime.NewHub(0)
	}

	s := &Server{
		base:    base,
		hub:     hub,
		opts:    opts,
		metrics: NewMetrics(),
		reg:     reg,
		log:     log.ForService("api"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 16384,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	if err := s.metrics.Register(reg); err != nil {
		return nil, err
	}

	st := base.State()
	if st.Dataset != nil {
		s.metrics.entries.Set(float64(st.Dataset.Len()))
		hub.PublishDataset(st.Dataset)
	}
	s.unsub = base.Subscribe(s.bridge)
	s.unobserve = base.Deriver().Observe(func(entries int, took time.Duration) {
		s.metrics.countComputes.Inc()
		s.metrics.countComputeTime.Observe(took.Seconds())
	})
	return s, nil
}

// Close detaches the server from its store.
func (s *Server) Close() {
	s.unsub()
	s.unobserve()
}

// Metrics returns the server collectors.
func (s *Server) Metrics() *Metrics { return s.metrics }

// bridge forwards base store transitions to the hub.
func (s *Server) bridge(prev, next store.State) {
	recovered := prev.Err != nil && next.Err == nil && next.Dataset != nil
	if next.Rev.Dataset != prev.Rev.Dataset || recovered {
		s.metrics.entries.Set(float64(next.Dataset.Len()))
		s.metrics.ObserveRefresh(nil)
		s.hub.PublishDataset(next.Dataset)
		return
	}
	if next.Err != nil && !errors.Is(prev.Err, next.Err) {
		s.metrics.ObserveRefresh(next.Err)
		s.hub.PublishError(next.Err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Warnf("encoding JSON response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, error, message string) {
	s.writeJSON(w, status, ErrorResponse{Error: error, Message: message})
}

func CorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response code. It forwards Hijack so
// websocket upgrades pass through.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response does not support hijacking")
	}
	if r.status == 0 {
		r.status = http.StatusSwitchingProtocols
	}
	return h.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// instrument tags requests with an id and records route metrics.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		rec := &statusRecorder{ResponseWriter: w}
		start := s.opts.Clock.Now()
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		took := s.opts.Clock.Since(start)
		s.metrics.requests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		s.metrics.duration.WithLabelValues(route).Observe(took.Seconds())
		s.log.Debugf("%s %s %d %s id=%s", r.Method, r.URL.Path, rec.status, took.Round(time.Microsecond), id)
	})
}
