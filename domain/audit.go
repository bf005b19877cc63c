package domain

import "time"

// Audit action tags
const (
	ActionSearchRequested  = "search.requested"
	ActionWorkspaceCreated = "workspace.created"
)

// AuditEntry is an immutable record of a sensitive action. Entries are
// append-only; nothing in the service reads them back.
type AuditEntry struct {
	ID          string                 `json:"id"`
	WorkspaceID string                 `json:"workspaceId"`
	ActorID     string                 `json:"actorId"`
	Action      string                 `json:"action"`
	TargetType  string                 `json:"targetType"`
	TargetID    string                 `json:"targetId"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Timestamp   time.Time              `json:"ts"`
}
