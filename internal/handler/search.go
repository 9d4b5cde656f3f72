package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"ridesg/internal/domain"
	"ridesg/internal/httputil"
	"ridesg/internal/service/search"
)

// SearchResponse is the server-action-shaped payload: callers always get
// this envelope, with failures folded into the error field rather than
// raised as HTTP errors.
type SearchResponse struct {
	Results []domain.SearchResult `json:"results"`
	Error   string                `json:"error,omitempty"`
}

// SelectionRequest carries the result the UI focused, or null to clear.
type SelectionRequest struct {
	Result *domain.SearchResult `json:"result"`
}

// SearchHandler fronts the search orchestrator.
type SearchHandler struct {
	orchestrator *search.Orchestrator
	logger       *slog.Logger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(orchestrator *search.Orchestrator, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// Search runs a coordinated landmark search.
// POST /api/search
//
// Mirrors the web app's server action contract: branch failures never
// surface as non-200s. Only a malformed or invalid request gets an HTTP
// error; everything past validation answers 200 with {results, error?}.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req search.Request
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	results, err := h.orchestrator.CoordinatedSearch(r.Context(), req)
	if err != nil {
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			handleError(w, err)
			return
		}

		h.logger.Error("search failed", "query", req.Query, "error", err)
		httputil.RespondJSON(w, http.StatusOK, SearchResponse{
			Results: []domain.SearchResult{},
			Error:   err.Error(),
		})
		return
	}

	if results == nil {
		results = []domain.SearchResult{}
	}
	httputil.RespondJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// SetSelection records the map-focused result.
// PUT /api/search/selection
func (h *SearchHandler) SetSelection(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.orchestrator.SelectResult(req.Result)
	httputil.RespondJSON(w, http.StatusOK, SelectionRequest{Result: h.orchestrator.SelectedResult()})
}

// GetSelection returns the currently selected result, if any.
// GET /api/search/selection
func (h *SearchHandler) GetSelection(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, SelectionRequest{Result: h.orchestrator.SelectedResult()})
}

// HealthCheck is a simple health check endpoint
// GET /health
func (h *SearchHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
