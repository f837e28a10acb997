// Package api serves the JSON HTTP API: search with pagination
// sessions, source browsing, stats, admin operations and the WebSocket
// firehose. Handlers translate engine and storage results into response
// types; policy (query semantics, session expiry, archiving) lives in
// the packages underneath.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/vestnik/vestnik/pkg/guard"
	"github.com/vestnik/vestnik/pkg/log"
	"github.com/vestnik/vestnik/pkg/realtime"
	"github.com/vestnik/vestnik/pkg/search"
	"github.com/vestnik/vestnik/pkg/session"
	"github.com/vestnik/vestnik/pkg/storage"
)

// Storage is the store surface the API reads from. *storage.Store
// implements it; the archive endpoints additionally probe the store for
// archive.Archiver with a type assertion.
type Storage interface {
	RecentAdditions(ctx context.Context, limit int) ([]storage.Item, error)
	LatestPage(ctx context.Context, limit, offset int) ([]storage.Item, int, error)
	SourceNews(ctx context.Context, source string, limit, offset int) ([]storage.Item, int, error)
	Sources(ctx context.Context) ([]storage.SourceCount, error)
	GetStats(ctx context.Context) (storage.Stats, error)
	Path() string
	RebuildFTS(ctx context.Context) (string, error)
}

// Config tunes the server. Zero values fall back to defaults.
type Config struct {
	PageSize          int
	SessionCapacity   int
	SessionTTL        time.Duration
	ArchiveDir        string
	ArchiveKeepMonths int
}

type Server struct {
	store          Storage
	engine         *search.Engine
	searchSessions *session.Store
	sourceSessions *session.Store
	hub            *realtime.Hub
	limiter        *guard.Limiter
	filter         *guard.Filter
	pageSize       int
	archiveDir     string
	archiveKeep    int
	logger         *log.Logger
}

func NewServer(cfg Config, store Storage, engine *search.Engine) *Server {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 10
	}
	if cfg.SessionCapacity <= 0 {
		cfg.SessionCapacity = 1024
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.ArchiveKeepMonths <= 0 {
		cfg.ArchiveKeepMonths = 6
	}

	return &Server{
		store:          store,
		engine:         engine,
		searchSessions: session.New(cfg.SessionCapacity, cfg.SessionTTL),
		sourceSessions: session.New(cfg.SessionCapacity, cfg.SessionTTL),
		pageSize:       cfg.PageSize,
		archiveDir:     cfg.ArchiveDir,
		archiveKeep:    cfg.ArchiveKeepMonths,
		logger:         log.ForService("api"),
	}
}

// SetHub wires the realtime hub that feeds the firehose endpoint.
// Without a hub the firehose serves the init snapshot only.
func (s *Server) SetHub(hub *realtime.Hub) {
	s.hub = hub
}

// SetGuard enables rate limiting and content filtering. Either argument
// may be nil to enable just the other.
func (s *Server) SetGuard(limiter *guard.Limiter, filter *guard.Filter) {
	s.limiter = limiter
	s.filter = filter
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Errorf("encoding JSON response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, error, message string) {
	response := ErrorResponse{
		Error:   error,
		Message: message,
	}
	s.writeJSON(w, status, response)
}

func CorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
