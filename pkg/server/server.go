package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/finwatch/newsradar/internal/store"
	"github.com/finwatch/newsradar/pkg/export"
	"github.com/finwatch/newsradar/pkg/feed"
	"github.com/finwatch/newsradar/pkg/pipeline"
)

// Server provides the HTTP API.
type Server struct {
	store   store.Store
	pipe    *pipeline.Pipeline
	sources []feed.Source
	port    int
	log     zerolog.Logger
}

// New creates a new HTTP server.
func New(s store.Store, pipe *pipeline.Pipeline, sources []feed.Source, port int, log zerolog.Logger) *Server {
	if port == 0 {
		port = 8080
	}
	return &Server{
		store:   s,
		pipe:    pipe,
		sources: sources,
		port:    port,
		log:     log,
	}
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/v1/articles", s.handleArticles)
	mux.HandleFunc("/api/v1/clusters", s.handleClusters)
	mux.HandleFunc("/api/v1/hot", s.handleHot)
	mux.HandleFunc("/api/v1/collect", s.handleCollect)
	mux.HandleFunc("/api/v1/analyze", s.handleAnalyze)
	mux.HandleFunc("/api/v1/export/clusters.csv", s.handleExportClusters)
	mux.HandleFunc("/api/v1/export/hot.csv", s.handleExportHot)

	addr := fmt.Sprintf(":%d", s.port)
	s.log.Info().Str("addr", addr).Msg("server listening")
	return http.ListenAndServe(addr, mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleArticles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	opts := store.ListOpts{Limit: 100}
	if src := r.URL.Query().Get("source"); src != "" {
		opts.Source = src
	}
	if since := r.URL.Query().Get("since"); since != "" {
		if t, err := time.Parse(time.RFC3339, since); err == nil {
			opts.Since = t
		}
	}

	articles, err := s.store.ListArticles(r.Context(), opts)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  articles,
		"count": len(articles),
	})
}

func (s *Server) handleClusters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	rows, err := s.store.ListClusteredArticles(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  rows,
		"count": len(rows),
	})
}

func (s *Server) handleHot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	rows, err := s.store.ListHotness(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  rows,
		"count": len(rows),
	})
}

func (s *Server) handleCollect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	ctx := r.Context()
	results := make(map[string]int)
	var errs []string

	for _, src := range s.sources {
		articles, err := src.Collect(ctx)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", src.Name(), err))
			continue
		}
		saved, err := s.store.SaveArticles(ctx, articles)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s store: %v", src.Name(), err))
			continue
		}
		results[src.Name()] = saved
	}

	resp := map[string]any{"collected": results}
	if len(errs) > 0 {
		resp["errors"] = errs
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	clusters, ranked, err := s.runPipeline(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"clusters": len(clusters),
		"ranked":   len(ranked),
	})
}

func (s *Server) handleExportClusters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	rows, err := s.store.ListClusteredArticles(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="clusters.csv"`)
	if err := export.WriteClustersCSV(w, rows); err != nil {
		s.log.Warn().Err(err).Msg("clusters export failed")
	}
}

func (s *Server) handleExportHot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	rows, err := s.store.ListHotness(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="hotness.csv"`)
	if err := export.WriteHotnessCSV(w, rows); err != nil {
		s.log.Warn().Err(err).Msg("hotness export failed")
	}
}

// runPipeline loads the full article snapshot, runs the core, and replaces
// the derived tables.
func (s *Server) runPipeline(ctx context.Context) ([]pipeline.Cluster, []pipeline.HotnessScore, error) {
	articles, err := s.store.ListArticles(ctx, store.ListOpts{})
	if err != nil {
		return nil, nil, fmt.Errorf("load articles: %w", err)
	}

	clusters, ranked, err := s.pipe.Run(ctx, articles)
	if err != nil {
		return nil, nil, fmt.Errorf("pipeline run: %w", err)
	}

	if err := s.store.ReplaceResults(ctx, clusters, ranked); err != nil {
		return nil, nil, fmt.Errorf("replace results: %w", err)
	}
	return clusters, ranked, nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
