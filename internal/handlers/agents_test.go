package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codehornets/julep/internal/queries/agents"
	"github.com/codehornets/julep/internal/store"
	"github.com/codehornets/julep/pkg/types"
)

type stubAgentStore struct {
	agent   types.Agent
	deleted types.ResourceDeleted
	list    []types.Agent
	err     error
	calls   int

	lastDeveloper uuid.UUID
	lastAgent     uuid.UUID
	lastParams    agents.ListParams
}

func (s *stubAgentStore) CreateOrUpdate(ctx context.Context, developerID, agentID uuid.UUID, req types.CreateOrUpdateAgentRequest) (types.Agent, error) {
	s.calls++
	s.lastDeveloper, s.lastAgent = developerID, agentID
	return s.agent, s.err
}

func (s *stubAgentStore) Get(ctx context.Context, developerID, agentID uuid.UUID) (types.Agent, error) {
	s.calls++
	s.lastDeveloper, s.lastAgent = developerID, agentID
	return s.agent, s.err
}

func (s *stubAgentStore) List(ctx context.Context, developerID uuid.UUID, params agents.ListParams) ([]types.Agent, error) {
	s.calls++
	s.lastDeveloper, s.lastParams = developerID, params
	return s.list, s.err
}

func (s *stubAgentStore) Delete(ctx context.Context, developerID, agentID uuid.UUID) (types.ResourceDeleted, error) {
	s.calls++
	s.lastDeveloper, s.lastAgent = developerID, agentID
	return s.deleted, s.err
}

func newAgentRouter(stub *stubAgentStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/v1/agents/:agent_id", CreateOrUpdateAgentHandler(stub))
	router.GET("/api/v1/agents", ListAgentsHandler(stub))
	router.GET("/api/v1/agents/:agent_id", GetAgentHandler(stub))
	router.DELETE("/api/v1/agents/:agent_id", DeleteAgentHandler(stub))
	return router
}

func TestGetAgent(t *testing.T) {
	agentID := uuid.New()
	devID := uuid.New()
	stub := &stubAgentStore{agent: types.Agent{ID: agentID, Name: "helper"}}
	router := newAgentRouter(stub)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/agents/"+agentID.String(), nil)
	req.Header.Set("X-Developer-Id", devID.String())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, devID, stub.lastDeveloper)
	assert.Equal(t, agentID, stub.lastAgent)

	var got types.Agent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "helper", got.Name)
}

func TestGetAgentMissingDeveloperHeader(t *testing.T) {
	stub := &stubAgentStore{}
	router := newAgentRouter(stub)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/agents/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, stub.calls)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "missing_developer_id", resp.Error)
}

func TestGetAgentInvalidID(t *testing.T) {
	stub := &stubAgentStore{}
	router := newAgentRouter(stub)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/agents/not-a-uuid", nil)
	req.Header.Set("X-Developer-Id", uuid.NewString())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, stub.calls)
}

func TestGetAgentDomainErrorStatus(t *testing.T) {
	stub := &stubAgentStore{err: &store.DomainError{Status: http.StatusNotFound, Message: "Agent not found"}}
	router := newAgentRouter(stub)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/agents/"+uuid.NewString(), nil)
	req.Header.Set("X-Developer-Id", uuid.NewString())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Agent not found", resp.Message)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestCreateOrUpdateAgentBadBody(t *testing.T) {
	stub := &stubAgentStore{}
	router := newAgentRouter(stub)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/agents/"+uuid.NewString(), strings.NewReader("{not json"))
	req.Header.Set("X-Developer-Id", uuid.NewString())
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, stub.calls)
}

func TestListAgentsPassesQueryParams(t *testing.T) {
	stub := &stubAgentStore{list: []types.Agent{{Name: "a"}, {Name: "b"}}}
	router := newAgentRouter(stub)

	target := "/api/v1/agents?limit=5&offset=10&sort_by=updated_at&direction=asc&metadata_filter=" + url.QueryEscape(`{"env":"prod"}`)
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("X-Developer-Id", uuid.NewString())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, stub.lastParams.Limit)
	assert.Equal(t, 10, stub.lastParams.Offset)
	assert.Equal(t, "updated_at", stub.lastParams.SortBy)
	assert.Equal(t, "asc", stub.lastParams.Direction)
	assert.Equal(t, map[string]any{"env": "prod"}, stub.lastParams.MetadataFilter)

	var resp struct {
		Items []types.Agent `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Items, 2)
}

func TestListAgentsRejectsBadFilter(t *testing.T) {
	stub := &stubAgentStore{}
	router := newAgentRouter(stub)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/agents?metadata_filter=notjson", nil)
	req.Header.Set("X-Developer-Id", uuid.NewString())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, stub.calls)
}

func TestDeleteAgent(t *testing.T) {
	agentID := uuid.New()
	stub := &stubAgentStore{deleted: types.ResourceDeleted{ID: agentID}}
	router := newAgentRouter(stub)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/agents/"+agentID.String(), nil)
	req.Header.Set("X-Developer-Id", uuid.NewString())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got types.ResourceDeleted
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, agentID, got.ID)
}
