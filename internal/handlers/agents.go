package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/codehornets/julep/internal/queries/agents"
	"github.com/codehornets/julep/pkg/types"
)

// AgentStore captures the agent operations required by agent handlers.
type AgentStore interface {
	CreateOrUpdate(ctx context.Context, developerID, agentID uuid.UUID, req types.CreateOrUpdateAgentRequest) (types.Agent, error)
	Get(ctx context.Context, developerID, agentID uuid.UUID) (types.Agent, error)
	List(ctx context.Context, developerID uuid.UUID, params agents.ListParams) ([]types.Agent, error)
	Delete(ctx context.Context, developerID, agentID uuid.UUID) (types.ResourceDeleted, error)
}

// CreateOrUpdateAgentHandler handles the request to create or replace an agent.
func CreateOrUpdateAgentHandler(store AgentStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		devID, ok := developerID(c)
		if !ok {
			return
		}
		agentID, ok := pathUUID(c, "agent_id")
		if !ok {
			return
		}

		var req types.CreateOrUpdateAgentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}

		agent, err := store.CreateOrUpdate(c.Request.Context(), devID, agentID, req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, agent)
	}
}

// GetAgentHandler handles the request to fetch one agent.
func GetAgentHandler(store AgentStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		devID, ok := developerID(c)
		if !ok {
			return
		}
		agentID, ok := pathUUID(c, "agent_id")
		if !ok {
			return
		}

		agent, err := store.Get(c.Request.Context(), devID, agentID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, agent)
	}
}

// ListAgentsHandler handles the request to page through a developer's agents.
func ListAgentsHandler(store AgentStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		devID, ok := developerID(c)
		if !ok {
			return
		}

		limit, ok := queryInt(c, "limit", 0)
		if !ok {
			return
		}
		offset, ok := queryInt(c, "offset", 0)
		if !ok {
			return
		}

		params := agents.ListParams{
			Limit:     limit,
			Offset:    offset,
			SortBy:    c.Query("sort_by"),
			Direction: c.Query("direction"),
		}
		if raw := c.Query("metadata_filter"); raw != "" {
			var filter map[string]any
			if err := json.Unmarshal([]byte(raw), &filter); err != nil {
				c.JSON(http.StatusBadRequest, ErrorResponse{
					Error:   "invalid_metadata_filter",
					Message: "metadata_filter must be a JSON object",
					Code:    http.StatusBadRequest,
				})
				return
			}
			params.MetadataFilter = filter
		}

		list, err := store.List(c.Request.Context(), devID, params)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": list})
	}
}

// DeleteAgentHandler handles the request to delete an agent.
func DeleteAgentHandler(store AgentStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		devID, ok := developerID(c)
		if !ok {
			return
		}
		agentID, ok := pathUUID(c, "agent_id")
		if !ok {
			return
		}

		deleted, err := store.Delete(c.Request.Context(), devID, agentID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, deleted)
	}
}
