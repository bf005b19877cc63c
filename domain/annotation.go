package domain

import "time"

// Note is a free-text annotation a user attaches to a node
type Note struct {
	ID          string    `json:"id"`
	NodeID      string    `json:"nodeId"`
	WorkspaceID string    `json:"workspaceId"`
	UserID      string    `json:"userId"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Star marks that a user has starred a node. At most one star exists
// per (node, user) pair.
type Star struct {
	NodeID      string    `json:"nodeId"`
	WorkspaceID string    `json:"workspaceId"`
	UserID      string    `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
}
