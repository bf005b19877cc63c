package handlers

import (
	"encoding/json"
	"net/http"

	"scholarmap-backend/application/services"
	"scholarmap-backend/domain"
	"scholarmap-backend/pkg/common"
	"scholarmap-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// NodeHandler serves node-scoped reads and annotations
type NodeHandler struct {
	reads  *services.ReadService
	writes *services.WriteService
	logger *zap.Logger
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(reads *services.ReadService, writes *services.WriteService, logger *zap.Logger) *NodeHandler {
	return &NodeHandler{
		reads:  reads,
		writes: writes,
		logger: logger,
	}
}

// AddNoteRequest represents the request body for adding a note
type AddNoteRequest struct {
	Text string `json:"text" validate:"required,max=10000"`
}

// ToggleStarResponse reports the star state after the toggle
type ToggleStarResponse struct {
	Starred bool `json:"starred"`
}

// ListSources handles GET /nodes/{nodeID}/sources
func (h *NodeHandler) ListSources(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeID")

	sources, err := h.reads.GetSourcesByNode(r.Context(), nodeID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, sources)
}

// ListNotes handles GET /nodes/{nodeID}/notes
func (h *NodeHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeID")

	notes, err := h.reads.GetNotesByNode(r.Context(), nodeID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, notes)
}

// AddNote handles POST /nodes/{nodeID}/notes
func (h *NodeHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeID")

	var req AddNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "text is required")
		return
	}

	node, err := h.resolveNode(w, r, nodeID)
	if node == nil || err != nil {
		return
	}

	note, err := h.writes.AddNote(r.Context(), nodeID, node.WorkspaceID, req.Text)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, note)
}

// ToggleStar handles POST /nodes/{nodeID}/star
func (h *NodeHandler) ToggleStar(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeID")

	node, err := h.resolveNode(w, r, nodeID)
	if node == nil || err != nil {
		return
	}

	starred, err := h.writes.ToggleStar(r.Context(), nodeID, node.WorkspaceID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, ToggleStarResponse{Starred: starred})
}

// resolveNode loads the node named in the path, writing the error
// response itself when the node is missing or inaccessible
func (h *NodeHandler) resolveNode(w http.ResponseWriter, r *http.Request, nodeID string) (*domain.Node, error) {
	node, err := h.reads.GetNode(r.Context(), nodeID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return nil, err
	}
	if node == nil {
		common.RespondError(w, http.StatusNotFound, "NOT_FOUND", "node not found")
		return nil, nil
	}
	return node, nil
}
