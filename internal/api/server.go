// internal/api/server.go
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/watchgrid/cortex/internal/config"
	"github.com/watchgrid/cortex/internal/engine"
)

// Server exposes the pipeline over HTTP: pull-based intelligence and
// monitoring snapshots, finalized events, and lifecycle controls.
type Server struct {
	config     *config.Config
	logger     *zap.Logger
	router     *mux.Router
	httpServer *http.Server
	engine     *engine.CoreEngine
	startTime  time.Time
}

// NewServer creates the HTTP server
func NewServer(cfg *config.Config, logger *zap.Logger, eng *engine.CoreEngine) *Server {
	s := &Server{
		config:    cfg,
		logger:    logger,
		router:    mux.NewRouter(),
		engine:    eng,
		startTime: time.Now(),
	}

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	s.router.HandleFunc("/api/v1/intelligence", s.handleIntelligence).Methods("GET")
	s.router.HandleFunc("/api/v1/monitoring", s.handleMonitoring).Methods("GET")
	s.router.HandleFunc("/api/v1/events", s.handleEvents).Methods("GET")
	s.router.HandleFunc("/api/v1/patterns", s.handlePatterns).Methods("GET")

	s.router.HandleFunc("/api/v1/monitoring/start", s.handleStart).Methods("POST")
	s.router.HandleFunc("/api/v1/monitoring/stop", s.handleStop).Methods("POST")
	s.router.HandleFunc("/api/v1/monitoring/reset", s.handleReset).Methods("POST")

	s.router.Use(s.loggingMiddleware)
}

// Start begins serving; blocks until shutdown.
func (s *Server) Start() error {
	s.logger.Info("api server listening", zap.Int("port", s.config.Server.Port))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api: serve: %w", err)
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.startTime).String(),
		"active": s.engine.Active(),
	})
}

func (s *Server) handleIntelligence(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.Intelligence())
}

func (s *Server) handleMonitoring(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.Monitoring())
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	evs := s.engine.Events()

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	if len(evs) > limit {
		evs = evs[len(evs)-limit:]
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"events": evs,
		"count":  len(evs),
	})
}

func (s *Server) handlePatterns(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.Catalog().All())
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.engine.Start(context.WithoutCancel(r.Context()))
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

func (s *Server) handleStop(w http.ResponseWriter, _ *http.Request) {
	s.engine.Stop()
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	s.engine.Reset()
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("write response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("took", time.Since(start)))
	})
}
