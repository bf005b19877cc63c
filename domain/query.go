package domain

import "time"

// QueryStatus is the lifecycle state of a research query
type QueryStatus string

const (
	QueryStatusRunning QueryStatus = "running"
	QueryStatusDone    QueryStatus = "done"
	QueryStatusFailed  QueryStatus = "failed"
)

// Valid reports whether s is a known status
func (s QueryStatus) Valid() bool {
	switch s {
	case QueryStatusRunning, QueryStatusDone, QueryStatusFailed:
		return true
	}
	return false
}

// Terminal reports whether s is a terminal status
func (s QueryStatus) Terminal() bool {
	return s == QueryStatusDone || s == QueryStatusFailed
}

// Query represents one topic-research request. It is created running and
// transitions exactly once to done or failed when population finishes.
type Query struct {
	ID          string                 `json:"id"`
	WorkspaceID string                 `json:"workspaceId"`
	Topic       string                 `json:"topic"`
	Status      QueryStatus            `json:"status"`
	CreatedBy   string                 `json:"createdBy"`
	Params      map[string]interface{} `json:"params,omitempty"`
	StartedAt   time.Time              `json:"startedAt"`
	CompletedAt *time.Time             `json:"completedAt,omitempty"`
}
