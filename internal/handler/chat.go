package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sekolahdigital/adminpanel/internal/assistant"
	"github.com/sekolahdigital/adminpanel/internal/format"
	"github.com/sekolahdigital/adminpanel/internal/i18n"
)

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Stats(r.Context())
	if err != nil {
		slog.Error("dashboard stats", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

type chatRequest struct {
	Query string `json:"query"`

	// Optional overrides; the defaults are the tool-calling design
	// with recommendations on.
	UseSmartRetrieval      bool  `json:"use_smart_retrieval"`
	IncludeRecommendations *bool `json:"include_recommendations"`
	MaxContextSize         int   `json:"max_context_size"`
}

type chatResponse struct {
	Response    string   `json:"response"`
	HTML        string   `json:"html"`
	ContextUsed []string `json:"context_used"`
	DataSize    int      `json:"data_size"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	opts := assistant.Options{
		UseSmartRetrieval:      req.UseSmartRetrieval,
		MaxContextSize:         req.MaxContextSize,
		IncludeRecommendations: true,
	}
	if req.IncludeRecommendations != nil {
		opts.IncludeRecommendations = *req.IncludeRecommendations
	}

	res, err := h.assistant.Analyze(r.Context(), req.Query, opts)
	if err != nil {
		var qe *assistant.QueryError
		if errors.As(err, &qe) {
			respondError(w, http.StatusBadRequest, i18n.T(r.Context(), qe.MessageID))
			return
		}
		// The assistant already maps upstream failures to user-facing text.
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	rendered := format.Response(res.Response)
	respondJSON(w, http.StatusOK, chatResponse{
		Response:    rendered.PlainText,
		HTML:        rendered.HTML,
		ContextUsed: res.ContextUsed,
		DataSize:    res.DataSize,
	})
}
