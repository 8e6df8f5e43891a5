package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/codehornets/julep/pkg/types"
)

// DeveloperStore captures the developer operations required by developer handlers.
type DeveloperStore interface {
	Create(ctx context.Context, developerID uuid.UUID, req types.CreateDeveloperRequest) (types.ResourceCreated, error)
	Get(ctx context.Context, developerID uuid.UUID) (types.Developer, error)
}

// CreateDeveloperHandler handles the request to register a developer.
func CreateDeveloperHandler(store DeveloperStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.CreateDeveloperRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}

		// The developer id may be supplied by the caller; a missing header
		// means a fresh id is generated.
		id := uuid.Nil
		if raw := c.GetHeader(developerHeader); raw != "" {
			parsed, err := uuid.Parse(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, ErrorResponse{
					Error:   "invalid_developer_id",
					Message: developerHeader + " must be a valid UUID",
					Code:    http.StatusBadRequest,
				})
				return
			}
			id = parsed
		}

		created, err := store.Create(c.Request.Context(), id, req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, created)
	}
}

// GetDeveloperHandler handles the request to fetch the calling developer.
func GetDeveloperHandler(store DeveloperStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		devID, ok := developerID(c)
		if !ok {
			return
		}

		dev, err := store.Get(c.Request.Context(), devID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, dev)
	}
}
