package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// API routes with method-specific routing
	mux.HandleFunc("GET /api/search", s.HandleSearch)
	mux.HandleFunc("GET /api/search/session/{key}", s.HandleSearchSession)
	mux.HandleFunc("GET /api/latest", s.HandleLatest)
	mux.HandleFunc("GET /api/sources", s.HandleSources)
	mux.HandleFunc("GET /api/sources/session/{key}", s.HandleSourceSession)
	mux.HandleFunc("GET /api/sources/{name}", s.HandleSourceNews)
	mux.HandleFunc("GET /api/stats", s.HandleStats)
	mux.HandleFunc("GET /api/archive/months", s.HandleArchiveMonths)
	mux.HandleFunc("POST /api/admin/rebuild", s.HandleAdminRebuild)
	mux.HandleFunc("POST /api/admin/archive", s.HandleAdminArchive)
	mux.HandleFunc("GET /api/firehose", s.HandleFirehose)
	mux.HandleFunc("GET /health", s.HandleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
}
