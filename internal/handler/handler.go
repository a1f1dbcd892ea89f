// Package handler exposes the admin panel's JSON API: session auth,
// CRUD for the school data, dashboard statistics, and the AI chat
// endpoint.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sekolahdigital/adminpanel/internal/assistant"
	"github.com/sekolahdigital/adminpanel/internal/model"
	"github.com/sekolahdigital/adminpanel/internal/retrieval"
	"github.com/sekolahdigital/adminpanel/internal/store"
)

// Analyzer is the slice of the assistant the chat endpoint needs.
type Analyzer interface {
	Analyze(ctx context.Context, query string, opts assistant.Options) (*assistant.Result, error)
}

// Config holds handler-level settings.
type Config struct {
	SecureCookies bool
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store     *store.Store
	assistant Analyzer
	stats     *retrieval.Builder
	config    Config
}

// New creates a new Handler.
func New(s *store.Store, a Analyzer, stats *retrieval.Builder, cfg Config) *Handler {
	return &Handler{store: s, assistant: a, stats: stats, config: cfg}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/api/login", h.handleLogin)
	r.Post("/api/logout", h.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)

		r.Get("/api/stats", h.handleStats)
		r.Post("/api/ai/chat", h.handleChat)

		r.Route("/api/students", func(r chi.Router) {
			r.Get("/", h.handleListStudents)
			r.Post("/", h.handleCreateStudent)
			r.Get("/{id}", h.handleGetStudent)
			r.Put("/{id}", h.handleUpdateStudent)
			r.With(requireRole(model.UserRoleSuperadmin)).
				Delete("/{id}", h.handleDeleteStudent)
		})

		r.Route("/api/exams", func(r chi.Router) {
			r.Get("/", h.handleListExams)
			r.Post("/", h.handleCreateExam)
			r.Get("/{id}", h.handleGetExam)
			r.Put("/{id}", h.handleUpdateExam)
			r.With(requireRole(model.UserRoleSuperadmin)).
				Delete("/{id}", h.handleDeleteExam)
			r.Get("/{id}/questions", h.handleListQuestions)
			r.Post("/{id}/questions", h.handleCreateQuestion)
		})
		r.Delete("/api/questions/{id}", h.handleDeleteQuestion)

		r.Get("/api/results", h.handleListResults)
		r.Post("/api/results", h.handleCreateResult)
	})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

func urlParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}
