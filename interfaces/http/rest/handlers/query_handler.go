package handlers

import (
	"net/http"

	"scholarmap-backend/application/services"
	"scholarmap-backend/pkg/common"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// QueryHandler serves query status and query-scoped graph reads
type QueryHandler struct {
	reads  *services.ReadService
	logger *zap.Logger
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(reads *services.ReadService, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{
		reads:  reads,
		logger: logger,
	}
}

// GetQuery handles GET /queries/{queryID}. Clients poll this for the
// running → done/failed transition.
func (h *QueryHandler) GetQuery(w http.ResponseWriter, r *http.Request) {
	queryID := chi.URLParam(r, "queryID")

	q, err := h.reads.GetQuery(r.Context(), queryID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	if q == nil {
		common.RespondError(w, http.StatusNotFound, "NOT_FOUND", "query not found")
		return
	}
	common.RespondJSON(w, http.StatusOK, q)
}

// ListNodes handles GET /queries/{queryID}/nodes
func (h *QueryHandler) ListNodes(w http.ResponseWriter, r *http.Request) {
	queryID := chi.URLParam(r, "queryID")

	nodes, err := h.reads.GetNodesByQuery(r.Context(), queryID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, nodes)
}

// ListEdges handles GET /queries/{queryID}/edges
func (h *QueryHandler) ListEdges(w http.ResponseWriter, r *http.Request) {
	queryID := chi.URLParam(r, "queryID")

	edges, err := h.reads.GetEdgesByQuery(r.Context(), queryID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, edges)
}
