package handlers

import (
	"net/http"

	"scholarmap-backend/application/services"
	"scholarmap-backend/pkg/common"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// WorkspaceHandler serves workspace lookups and workspace-scoped lists
type WorkspaceHandler struct {
	reads  *services.ReadService
	logger *zap.Logger
}

// NewWorkspaceHandler creates a new workspace handler
func NewWorkspaceHandler(reads *services.ReadService, logger *zap.Logger) *WorkspaceHandler {
	return &WorkspaceHandler{
		reads:  reads,
		logger: logger,
	}
}

// GetByOrg handles GET /workspaces/by-org/{orgID}
func (h *WorkspaceHandler) GetByOrg(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")

	ws, err := h.reads.GetWorkspaceByOrgID(r.Context(), orgID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	if ws == nil {
		common.RespondError(w, http.StatusNotFound, "NOT_FOUND", "workspace not found")
		return
	}
	common.RespondJSON(w, http.StatusOK, ws)
}

// ListQueries handles GET /workspaces/{workspaceID}/queries
func (h *WorkspaceHandler) ListQueries(w http.ResponseWriter, r *http.Request) {
	workspaceID := chi.URLParam(r, "workspaceID")
	params := common.ExtractListParams(r, 50, 50)

	queries, err := h.reads.GetQueriesByWorkspace(r.Context(), workspaceID, params.Limit)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, queries)
}

// ListStarred handles GET /workspaces/{workspaceID}/starred
func (h *WorkspaceHandler) ListStarred(w http.ResponseWriter, r *http.Request) {
	workspaceID := chi.URLParam(r, "workspaceID")

	nodes, err := h.reads.GetStarredNodes(r.Context(), workspaceID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, nodes)
}
