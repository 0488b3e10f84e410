// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/poiesic/jobvec/core"
	"github.com/poiesic/jobvec/ingestion"
	"github.com/poiesic/jobvec/normalize"
	"github.com/poiesic/jobvec/reconcile"
	"github.com/poiesic/jobvec/storage"
)

// ShutdownTimeout bounds how long Run waits for in-flight requests.
const ShutdownTimeout = 5 * time.Second

// ErrPipelineRequired is returned when New is given a nil pipeline.
var ErrPipelineRequired = errors.New("pipeline is required")

// Option configures a Server.
type Option func(*Server) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "server")
		return nil
	}
}

// WithAPIKey requires every request to carry key in the X-API-Key header or
// as a bearer token. An empty key disables the check.
func WithAPIKey(key string) Option {
	return func(s *Server) error {
		s.apiKey = key
		return nil
	}
}

// WithReconciler reports the reconciler's state and counters on /stats.
func WithReconciler(r *reconcile.Reconciler) Option {
	return func(s *Server) error {
		s.reconciler = r
		return nil
	}
}

// Server serves the HTTP API.
type Server struct {
	pipeline   *ingestion.Pipeline
	repo       storage.JobRepository
	reconciler *reconcile.Reconciler
	apiKey     string
	logger     *slog.Logger
	router     *gin.Engine
	newID      func() string
}

// New builds a server around pipeline.
func New(pipeline *ingestion.Pipeline, opts ...Option) (*Server, error) {
	if pipeline == nil {
		return nil, ErrPipelineRequired
	}

	s := &Server{
		pipeline: pipeline,
		repo:     pipeline.Repository(),
		logger:   slog.Default().With("component", "server"),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())
	if s.apiKey != "" {
		router.Use(s.requireAPIKey())
	}

	router.POST("/process", s.handleProcess)
	router.GET("/stats", s.handleStats)
	router.GET("/health", s.handleHealth)

	s.router = router
	return s, nil
}

// Handler returns the HTTP handler for the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) handleProcess(c *gin.Context) {
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil || payload == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be a JSON object"})
		return
	}

	job, err := s.pipeline.Process(c.Request.Context(), core.RawRecord(payload), s.payloadID(payload))
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("process failed", "err", err)
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, job)
}

// payloadID picks the fallback identifier: job_id, then id, then a new UUID.
func (s *Server) payloadID(payload map[string]any) string {
	for _, key := range []string{core.FieldJobID, "id"} {
		if id := normalize.CleanString(payload[key]); id != nil {
			return *id
		}
	}
	return s.newID()
}

// StatsResponse is the body of GET /stats.
type StatsResponse struct {
	Total      int              `json:"total"`
	Ready      int              `json:"ready"`
	Pending    int              `json:"pending"`
	Reconciler *ReconcilerStats `json:"reconciler,omitempty"`
}

// ReconcilerStats mirrors reconcile.Stats for the API.
type ReconcilerStats struct {
	State     string `json:"state"`
	Scans     uint64 `json:"scans"`
	Processed uint64 `json:"processed"`
	Failed    uint64 `json:"failed"`
	LastError string `json:"last_error,omitempty"`
}

func (s *Server) handleStats(c *gin.Context) {
	ctx := c.Request.Context()

	total, err := s.repo.CountTotal(ctx)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	ready, err := s.repo.CountReady(ctx)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	resp := StatsResponse{Total: total, Ready: ready, Pending: total - ready}
	if s.reconciler != nil {
		st := s.reconciler.Stats()
		resp.Reconciler = &ReconcilerStats{
			State:     s.reconciler.State().String(),
			Scans:     st.Scans,
			Processed: st.Processed,
			Failed:    st.Failed,
			LastError: st.LastError,
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleHealth(c *gin.Context) {
	if err := s.repo.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrMalformedInput):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrConnectivity):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrEncodingFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) requireAPIKey() gin.HandlerFunc {
	want := []byte(s.apiKey)
	return func(c *gin.Context) {
		got := c.GetHeader("X-API-Key")
		if got == "" {
			got = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		}
		if subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start))
	}
}
