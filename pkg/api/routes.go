package api

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	gz := func(h http.HandlerFunc) http.Handler { return gzhttp.GzipHandler(h) }

	mux.Handle("GET /api/leaderboard", gz(s.HandleLeaderboard))
	mux.Handle("GET /api/leaderboard/counts", gz(s.HandleCounts))
	mux.Handle("GET /api/leaderboard/formatted", gz(s.HandleFormatted))
	mux.Handle("GET /api/leaderboard/presets", gz(s.HandlePresets))
	// Upgraded connections must not pass through the gzip writer.
	mux.HandleFunc("GET /api/session", s.HandleSession)
	mux.HandleFunc("GET /health", s.HandleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{}))
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return s.instrument(CorsMiddleware(mux))
}
