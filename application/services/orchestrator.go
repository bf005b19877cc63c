package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"scholarmap-backend/application/ports"
	"scholarmap-backend/domain"
	"scholarmap-backend/pkg/auth"
	"scholarmap-backend/pkg/errors"
	"scholarmap-backend/pkg/observability"

	"go.uber.org/zap"
)

// statusWriteTimeout bounds the terminal status write after the
// discovery deadline has already expired.
const statusWriteTimeout = 10 * time.Second

// SearchResult is returned to the HTTP caller before population finishes
type SearchResult struct {
	QueryID     string `json:"queryId"`
	WorkspaceID string `json:"workspaceId"`
}

// Orchestrator drives the query lifecycle: resolve or create the
// caller's workspace, create a running query, respond, then populate the
// graph from the content-discovery collaborator in a detached task that
// ends in exactly one terminal status.
type Orchestrator struct {
	workspaces ports.WorkspaceRepository
	writes     *WriteService
	discoverer ports.Discoverer
	events     ports.EventPublisher
	metrics    observability.MetricsPublisher
	timeout    time.Duration
	logger     *zap.Logger

	wg sync.WaitGroup
}

// NewOrchestrator creates the orchestrator. timeout is the deadline for
// one discovery-plus-persist run; on expiry the query is marked failed.
func NewOrchestrator(
	workspaces ports.WorkspaceRepository,
	writes *WriteService,
	discoverer ports.Discoverer,
	events ports.EventPublisher,
	metrics observability.MetricsPublisher,
	timeout time.Duration,
	logger *zap.Logger,
) *Orchestrator {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Orchestrator{
		workspaces: workspaces,
		writes:     writes,
		discoverer: discoverer,
		events:     events,
		metrics:    metrics,
		timeout:    timeout,
		logger:     logger,
	}
}

// Search starts a topic research run for the caller and returns as soon
// as the query record exists. Graph population continues detached; the
// caller observes progress by re-reading the query status.
func (o *Orchestrator) Search(ctx context.Context, topic string, params map[string]interface{}) (*SearchResult, error) {
	principal, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, errors.NewValidationError("topic is required")
	}

	ws, err := o.resolveWorkspace(ctx, principal)
	if err != nil {
		return nil, err
	}

	q, err := o.writes.CreateQuery(ctx, ws.ID, topic, params)
	if err != nil {
		return nil, err
	}

	o.publish(ctx, ports.QueryEvent{
		Type:        ports.EventQueryCreated,
		QueryID:     q.ID,
		WorkspaceID: ws.ID,
		Topic:       topic,
		At:          time.Now(),
	})

	// Population runs detached from the request. The goroutine carries
	// the principal on a fresh context so the write gates still pass
	// after the HTTP request context is gone.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		bg := auth.WithPrincipal(context.Background(), principal)
		bg, cancel := context.WithTimeout(bg, o.timeout)
		defer cancel()
		o.populate(bg, ws.ID, q.ID, topic, params)
	}()

	return &SearchResult{QueryID: q.ID, WorkspaceID: ws.ID}, nil
}

// Wait blocks until all detached population tasks have finished. Used
// by graceful shutdown and tests.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// resolveWorkspace finds the caller's workspace by organization id,
// creating one on first search.
func (o *Orchestrator) resolveWorkspace(ctx context.Context, principal *auth.Principal) (*domain.Workspace, error) {
	orgID := principal.OrgID
	if orgID == "" {
		orgID = auth.SyntheticOrgID(principal.UserID)
	}

	ws, err := o.workspaces.GetByOrgID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if ws != nil {
		return ws, nil
	}

	name := fmt.Sprintf("Workspace for %s", orgID)
	if strings.HasPrefix(orgID, "user_") {
		name = fmt.Sprintf("Default Workspace for %s", principal.UserID)
	}

	ws, err = o.writes.CreateWorkspace(ctx, name, orgID, domain.PlanFree)
	if err != nil {
		// A concurrent first search may have created it in the meantime.
		if errors.IsConflict(err) {
			return o.workspaces.GetByOrgID(ctx, orgID)
		}
		return nil, err
	}
	return ws, nil
}

// populate runs the discovery collaborator and writes the result graph.
// Any error, including the deadline expiring, ends the query as failed;
// nothing here reaches the original HTTP caller.
func (o *Orchestrator) populate(ctx context.Context, workspaceID, queryID, topic string, params map[string]interface{}) {
	start := time.Now()

	items, err := o.discoverer.Discover(ctx, topic, params)
	if err == nil {
		_, err = o.writes.AppendNodesAndSources(ctx, queryID, workspaceID, items)
	}
	o.metrics.RecordDiscoveryDuration(ctx, time.Since(start))

	if err != nil {
		o.logger.Error("Query population failed",
			zap.Error(err),
			zap.String("queryID", queryID),
			zap.String("workspaceID", workspaceID),
			zap.String("topic", topic),
		)
		o.finish(ctx, workspaceID, queryID, topic, domain.QueryStatusFailed)
		return
	}

	o.logger.Info("Query population finished",
		zap.String("queryID", queryID),
		zap.Int("items", len(items)),
		zap.Duration("duration", time.Since(start)),
	)
	o.finish(ctx, workspaceID, queryID, topic, domain.QueryStatusDone)
}

// finish writes the terminal status. The status write gets its own
// deadline because the population context may already be expired.
func (o *Orchestrator) finish(ctx context.Context, workspaceID, queryID, topic string, status domain.QueryStatus) {
	principal, err := auth.PrincipalFromContext(ctx)
	if err != nil {
		o.logger.Error("No principal on population context", zap.String("queryID", queryID))
		return
	}

	writeCtx, cancel := context.WithTimeout(auth.WithPrincipal(context.Background(), principal), statusWriteTimeout)
	defer cancel()

	if err := o.writes.UpdateQueryStatus(writeCtx, queryID, workspaceID, status); err != nil {
		o.logger.Error("Failed to write terminal query status",
			zap.Error(err),
			zap.String("queryID", queryID),
			zap.String("status", string(status)),
		)
		return
	}

	o.metrics.CountQueryCompleted(writeCtx, string(status))

	eventType := ports.EventQueryCompleted
	if status == domain.QueryStatusFailed {
		eventType = ports.EventQueryFailed
	}
	o.publish(writeCtx, ports.QueryEvent{
		Type:        eventType,
		QueryID:     queryID,
		WorkspaceID: workspaceID,
		Topic:       topic,
		At:          time.Now(),
	})
}

// publish sends a lifecycle event, best-effort
func (o *Orchestrator) publish(ctx context.Context, event ports.QueryEvent) {
	if o.events == nil {
		return
	}
	if err := o.events.Publish(ctx, event); err != nil {
		o.logger.Warn("Failed to publish query event",
			zap.Error(err),
			zap.String("type", event.Type),
			zap.String("queryID", event.QueryID),
		)
	}
}
