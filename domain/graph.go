package domain

import "time"

// Node types produced by content discovery
const (
	NodeTypeTopic    = "topic"
	NodeTypeSubtopic = "subtopic"
	NodeTypeAuthor   = "author"
)

// RelationExpands is the only edge relation the write path derives today.
// Edge insertion stays a separate step from node insertion so further
// relation kinds can be added without touching it.
const RelationExpands = "expands"

// Node is one vertex in a query's result graph. WorkspaceID is
// denormalized from the owning query.
type Node struct {
	ID           string                 `json:"id"`
	QueryID      string                 `json:"queryId"`
	WorkspaceID  string                 `json:"workspaceId"`
	Label        string                 `json:"label"`
	Type         string                 `json:"type"`
	ParentNodeID string                 `json:"parentNodeId,omitempty"`
	Score        *float64               `json:"score,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt    time.Time              `json:"createdAt"`
}

// Edge is a directed relation between two nodes of the same query
type Edge struct {
	ID         string `json:"id"`
	QueryID    string `json:"queryId"`
	FromNodeID string `json:"fromNodeId"`
	ToNodeID   string `json:"toNodeId"`
	Relation   string `json:"relation"`
}

// Source is a citation attached to a node. Rank orders a node's source
// list ascending, lower rank meaning higher priority.
type Source struct {
	ID      string   `json:"id"`
	QueryID string   `json:"queryId"`
	NodeID  string   `json:"nodeId"`
	Kind    string   `json:"kind"`
	Title   string   `json:"title"`
	Authors []string `json:"authors,omitempty"`
	Year    int      `json:"year,omitempty"`
	URL     string   `json:"url,omitempty"`
	DOI     string   `json:"doi,omitempty"`
	Snippet string   `json:"snippet,omitempty"`
	Rank    int      `json:"rank,omitempty"`
}

// SourceItem is one citation in a discovery result, before persistence
type SourceItem struct {
	Kind    string   `json:"kind"`
	Title   string   `json:"title"`
	Authors []string `json:"authors,omitempty"`
	Year    int      `json:"year,omitempty"`
	URL     string   `json:"url,omitempty"`
	DOI     string   `json:"doi,omitempty"`
	Snippet string   `json:"snippet,omitempty"`
	Rank    int      `json:"rank,omitempty"`
}

// NodeItem is one vertex in a discovery result. ParentNodeID names an
// already persisted node; ParentIndex references an earlier item of the
// same batch, resolved to its new node id during the append. Either one
// yields a derived "expands" edge.
type NodeItem struct {
	Label        string                 `json:"label"`
	Type         string                 `json:"type"`
	ParentNodeID string                 `json:"parentNodeId,omitempty"`
	ParentIndex  *int                   `json:"parentIndex,omitempty"`
	Score        *float64               `json:"score,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	Sources      []SourceItem           `json:"sources,omitempty"`
}
