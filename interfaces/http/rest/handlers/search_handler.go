package handlers

import (
	"encoding/json"
	"net/http"

	"scholarmap-backend/application/services"
	"scholarmap-backend/pkg/utils"

	"go.uber.org/zap"
)

// SearchHandler starts topic research runs
type SearchHandler struct {
	orchestrator *services.Orchestrator
	logger       *zap.Logger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(orchestrator *services.Orchestrator, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// SearchRequest represents the request body for starting a search
type SearchRequest struct {
	Topic  string                 `json:"topic" validate:"required,max=500"`
	Params map[string]interface{} `json:"params,omitempty"`
}

// SearchResponse is returned as soon as the query record exists; the
// graph fills in asynchronously and the client polls the query status.
type SearchResponse struct {
	Success     bool   `json:"success"`
	QueryID     string `json:"queryId"`
	WorkspaceID string `json:"workspaceId"`
}

// Search handles POST /search
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"success":false,"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		http.Error(w, `{"success":false,"error":"topic is required"}`, http.StatusBadRequest)
		return
	}

	result, err := h.orchestrator.Search(r.Context(), req.Topic, req.Params)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(SearchResponse{
		Success:     true,
		QueryID:     result.QueryID,
		WorkspaceID: result.WorkspaceID,
	})
}
