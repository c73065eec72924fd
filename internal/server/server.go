// Package server exposes the registry lookup API over HTTP: company
// search, suggestions, single-company lookups with risk evaluation, the
// connection graph and store metrics.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/bizray/registry-cli/internal/cache"
	"github.com/bizray/registry-cli/internal/risk"
	"github.com/bizray/registry-cli/internal/store"
)

// Response cache lifetimes, matching how volatile each payload is.
const (
	companyCacheTTL = 2 * time.Hour
	searchCacheTTL  = 1 * time.Hour
	networkCacheTTL = 1 * time.Hour
)

// Server holds the handler dependencies.
type Server struct {
	store store.Store
	cache cache.Store
	risk  *risk.Service
}

// New creates a Server.
func New(st store.Store, c cache.Store, svc *risk.Service) *Server {
	if c == nil {
		c = cache.Noop{}
	}
	return &Server{store: st, cache: c, risk: svc}
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/company", s.handleSearch)
		r.Get("/company/{fnr}", s.handleCompany)
		r.Get("/company/{fnr}/network", s.handleNetwork)
		r.Get("/suggestions", s.handleSuggestions)
		r.Get("/metrics", s.handleMetrics)
	})
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
