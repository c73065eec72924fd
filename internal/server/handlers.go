package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/bizray/registry-cli/internal/cache"
	"github.com/bizray/registry-cli/internal/model"
	"github.com/bizray/registry-cli/internal/network"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// cached serves a response from the cache when possible, otherwise builds
// it and stores the result. Cache failures only cost the round trip.
func (s *Server) cached(ctx context.Context, w http.ResponseWriter, namespace, key string, ttl time.Duration, build func() (any, int, error)) {
	if data, ok, err := s.cache.Get(ctx, namespace, key); err == nil && ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	} else if err != nil {
		zap.L().Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}

	payload, status, err := build()
	if err != nil {
		zap.L().Error("request failed", zap.String("key", key), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if status != http.StatusOK {
		writeJSON(w, status, payload)
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if err := s.cache.Set(ctx, namespace, key, data, ttl); err != nil {
		zap.L().Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}
	limit := defaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxSearchLimit)
	}

	key := "search:" + query + ":" + strconv.Itoa(limit)
	s.cached(r.Context(), w, cache.NamespaceDB, key, searchCacheTTL, func() (any, int, error) {
		companies, err := s.store.SearchCompanies(r.Context(), query, limit)
		if err != nil {
			return nil, 0, err
		}
		if companies == nil {
			companies = []model.CompanySummary{}
		}
		return map[string]any{"companies": companies}, http.StatusOK, nil
	})
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}
	// Typeahead only kicks in from three characters on.
	if len(query) < 3 {
		writeJSON(w, http.StatusOK, map[string]any{"suggestions": []model.Suggestion{}})
		return
	}

	key := "suggestions:" + query
	s.cached(r.Context(), w, cache.NamespaceDB, key, searchCacheTTL, func() (any, int, error) {
		suggestions, err := s.store.SuggestCompanies(r.Context(), query, 10)
		if err != nil {
			return nil, 0, err
		}
		if suggestions == nil {
			suggestions = []model.Suggestion{}
		}
		return map[string]any{"suggestions": suggestions}, http.StatusOK, nil
	})
}

func (s *Server) handleCompany(w http.ResponseWriter, r *http.Request) {
	fnr := chi.URLParam(r, "fnr")

	key := "company:" + fnr
	s.cached(r.Context(), w, cache.NamespaceDB, key, companyCacheTTL, func() (any, int, error) {
		result, err := s.risk.Evaluate(r.Context(), fnr)
		if err != nil {
			return nil, 0, err
		}
		if result == nil {
			return map[string]string{"error": "company not found"}, http.StatusNotFound, nil
		}

		// Indicators are reported top-level with explicit nulls so a
		// consumer can tell "computed low risk" from "not available".
		// Without a fresh result the stored snapshot on the company
		// stands as-is.
		res := *result
		if res.Indicators != nil {
			res.Company.RiskIndicators = nil
			res.Company.RiskScore = nil
		}
		return res, http.StatusOK, nil
	})
}

func (s *Server) handleNetwork(w http.ResponseWriter, r *http.Request) {
	fnr := chi.URLParam(r, "fnr")

	key := "graph:" + fnr
	s.cached(r.Context(), w, cache.NamespaceNetwork, key, networkCacheTTL, func() (any, int, error) {
		graph, err := network.BuildGraph(r.Context(), s.store, fnr)
		if err != nil {
			return nil, 0, err
		}
		if graph == nil {
			return map[string]string{"error": "company not found"}, http.StatusNotFound, nil
		}
		return graph, http.StatusOK, nil
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := s.store.Metrics(r.Context())
	if err != nil {
		zap.L().Error("metrics failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}
