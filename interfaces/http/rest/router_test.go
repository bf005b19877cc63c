package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"scholarmap-backend/application/authz"
	"scholarmap-backend/application/services"
	"scholarmap-backend/infrastructure/discovery"
	"scholarmap-backend/infrastructure/persistence/memory"
	"scholarmap-backend/pkg/auth"
	"scholarmap-backend/pkg/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "router-test-secret"

type testServer struct {
	handler      http.Handler
	orchestrator *services.Orchestrator
	generator    *auth.JWTGenerator
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := memory.NewStore()
	guard := authz.NewGuard(store.Workspaces())
	logger := zap.NewNop()

	writes := services.NewWriteService(guard, store.Workspaces(), store.Queries(), store.Graph(), store.Annotations(), store.Audit(), true, logger)
	reads := services.NewReadService(guard, store.Workspaces(), store.Queries(), store.Graph(), store.Annotations(), logger)
	orchestrator := services.NewOrchestrator(store.Workspaces(), writes, discovery.NewStaticDiscoverer(), nil, observability.NopMetrics{}, time.Minute, logger)

	validator, err := auth.NewJWTValidator(auth.JWTConfig{
		SecretKey: testSecret,
		Issuer:    "scholarmap-backend",
		Audience:  []string{"scholarmap-api"},
	})
	require.NoError(t, err)

	generator, err := auth.NewJWTGenerator(auth.JWTGeneratorConfig{
		SecretKey: testSecret,
		Issuer:    "scholarmap-backend",
		Audience:  []string{"scholarmap-api"},
	})
	require.NoError(t, err)

	router := NewRouter(orchestrator, reads, writes, validator, false, logger)

	return &testServer{
		handler:      router.Setup(),
		orchestrator: orchestrator,
		generator:    generator,
	}
}

func (s *testServer) request(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) token(t *testing.T, userID string) string {
	t.Helper()

	token, err := s.generator.GenerateToken(userID, userID+"@example.com", "")
	require.NoError(t, err)
	return token
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.request(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = srv.request(t, http.MethodGet, "/ready", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSearch_RequiresAuthentication(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.request(t, http.MethodPost, "/api/v1/search", "", `{"topic":"graphs"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSearch_BlankTopic(t *testing.T) {
	srv := newTestServer(t)
	token := srv.token(t, "alice")

	rec := srv.request(t, http.MethodPost, "/api/v1/search", token, `{"topic":""}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearch_AcceptedAndPollable(t *testing.T) {
	srv := newTestServer(t)
	token := srv.token(t, "alice")

	rec := srv.request(t, http.MethodPost, "/api/v1/search", token, `{"topic":"Persuasion"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp struct {
		Success     bool   `json:"success"`
		QueryID     string `json:"queryId"`
		WorkspaceID string `json:"workspaceId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotEmpty(t, resp.QueryID)
	require.NotEmpty(t, resp.WorkspaceID)

	srv.orchestrator.Wait()

	rec = srv.request(t, http.MethodGet, "/api/v1/queries/"+resp.QueryID, token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var queryResp struct {
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &queryResp))
	assert.Equal(t, "done", queryResp.Data.Status)

	rec = srv.request(t, http.MethodGet, fmt.Sprintf("/api/v1/queries/%s/nodes", resp.QueryID), token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var nodesResp struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &nodesResp))
	assert.Len(t, nodesResp.Data, 4)
}

func TestNoteAndStarFlow(t *testing.T) {
	srv := newTestServer(t)
	token := srv.token(t, "alice")

	rec := srv.request(t, http.MethodPost, "/api/v1/search", token, `{"topic":"Annotations"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp struct {
		QueryID string `json:"queryId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	srv.orchestrator.Wait()

	rec = srv.request(t, http.MethodGet, fmt.Sprintf("/api/v1/queries/%s/nodes", resp.QueryID), token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var nodesResp struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &nodesResp))
	require.NotEmpty(t, nodesResp.Data)
	nodeID := nodesResp.Data[0].ID

	rec = srv.request(t, http.MethodPost, "/api/v1/nodes/"+nodeID+"/notes", token, `{"text":"worth revisiting"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = srv.request(t, http.MethodGet, "/api/v1/nodes/"+nodeID+"/notes", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.request(t, http.MethodPost, "/api/v1/nodes/"+nodeID+"/star", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var starResp struct {
		Data struct {
			Starred bool `json:"starred"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &starResp))
	assert.True(t, starResp.Data.Starred)

	rec = srv.request(t, http.MethodPost, "/api/v1/nodes/"+nodeID+"/star", token, "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &starResp))
	assert.False(t, starResp.Data.Starred)
}

func TestTenantIsolationOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	aliceToken := srv.token(t, "alice")
	bobToken := srv.token(t, "bob")

	rec := srv.request(t, http.MethodPost, "/api/v1/search", aliceToken, `{"topic":"secrets"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp struct {
		QueryID string `json:"queryId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	srv.orchestrator.Wait()

	rec = srv.request(t, http.MethodGet, "/api/v1/queries/"+resp.QueryID, bobToken, "")

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestWorkspaceByOrg_NotFound(t *testing.T) {
	srv := newTestServer(t)
	token := srv.token(t, "alice")

	rec := srv.request(t, http.MethodGet, "/api/v1/workspaces/by-org/nope", token, "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
