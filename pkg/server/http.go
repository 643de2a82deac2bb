// Copyright 2026 The TutorKit Authors
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

// Package server exposes the coordinator over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tutorkit/tutorkit/pkg/agent"
	"github.com/tutorkit/tutorkit/pkg/coordinator"
	"github.com/tutorkit/tutorkit/pkg/observability"
	"github.com/tutorkit/tutorkit/pkg/profile"
)

// Server is the HTTP front end.
type Server struct {
	coord    *coordinator.Coordinator
	profiles profile.Store
	metrics  *observability.Metrics
	logger   *slog.Logger

	httpServer *http.Server
}

// Options configures a Server.
type Options struct {
	Addr    string
	Metrics *observability.Metrics
	Logger  *slog.Logger
}

// New creates an HTTP server over the coordinator.
func New(coord *coordinator.Coordinator, profiles profile.Store, opts Options) *Server {
	metrics := opts.Metrics
	if metrics == nil {
		metrics = observability.NoopMetrics()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		coord:    coord,
		profiles: profiles,
		metrics:  metrics,
		logger:   logger,
	}

	s.httpServer = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/health", s.handleHealth)
	if s.metrics.Enabled() {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/capabilities", s.handleCapabilities)
		r.Post("/handle", s.handleRequest)

		r.Route("/students/{studentID}", func(r chi.Router) {
			r.Get("/profile", s.handleProfile)
			r.Post("/subjects/{subject}/sessions", s.intentHandler(agent.IntentStartSession))
			r.Post("/subjects/{subject}/questions", s.intentHandler(agent.IntentAskQuestion))
			r.Post("/subjects/{subject}/recommendations", s.intentHandler(agent.IntentRecommendContent))
			r.Post("/subjects/{subject}/assessments", s.intentHandler(agent.IntentSubmitAssessment))
			r.Post("/subjects/{subject}/progress", s.intentHandler(agent.IntentGetProgress))
			r.Post("/subjects/{subject}/documents", s.intentHandler(agent.IntentProcessDocument))
		})
	})

	return r
}

// observe logs each request and records HTTP metrics.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)
		route := chi.RouteContext(r.Context()).RoutePattern()
		s.metrics.RecordHTTP(r.Context(), r.Method, route, ww.Status(), duration)
		s.logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", duration)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"capabilities": s.coord.Capabilities(),
	})
}

// handleRequest is the generic dispatch endpoint. The body is a full
// coordinator request.
func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	var req coordinator.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	s.dispatch(w, r, &req)
}

// intentHandler builds a handler for the student-scoped convenience routes.
// The intent and routing identifiers come from the path; the body is the
// capability payload.
func (s *Server) intentHandler(intent string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
				return
			}
		}

		s.dispatch(w, r, &coordinator.Request{
			Intent:    intent,
			StudentID: chi.URLParam(r, "studentID"),
			Subject:   chi.URLParam(r, "subject"),
			Payload:   payload,
		})
	}
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, req *coordinator.Request) {
	resp, err := s.coord.Handle(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, coordinator.ErrUnknownIntent),
			errors.Is(err, coordinator.ErrInvalidRequest):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.logger.Error("Request handling failed", "intent", req.Intent, "error", err)
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "studentID")
	p, err := s.profiles.LoadProfile(r.Context(), studentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Start begins serving and blocks until the listener fails or Shutdown is
// called.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
