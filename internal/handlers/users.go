package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/codehornets/julep/internal/queries/users"
	"github.com/codehornets/julep/pkg/types"
)

// UserStore captures the user operations required by user handlers.
type UserStore interface {
	CreateOrUpdate(ctx context.Context, developerID, userID uuid.UUID, req types.CreateOrUpdateUserRequest) (types.User, error)
	Patch(ctx context.Context, developerID, userID uuid.UUID, req types.PatchUserRequest) (types.ResourceUpdated, error)
	Get(ctx context.Context, developerID, userID uuid.UUID) (types.User, error)
	List(ctx context.Context, developerID uuid.UUID, params users.ListParams) ([]types.User, error)
}

// CreateOrUpdateUserHandler handles the request to create or replace a user.
func CreateOrUpdateUserHandler(store UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		devID, ok := developerID(c)
		if !ok {
			return
		}
		userID, ok := pathUUID(c, "user_id")
		if !ok {
			return
		}

		var req types.CreateOrUpdateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}

		user, err := store.CreateOrUpdate(c.Request.Context(), devID, userID, req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// PatchUserHandler handles the request to partially update a user.
func PatchUserHandler(store UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		devID, ok := developerID(c)
		if !ok {
			return
		}
		userID, ok := pathUUID(c, "user_id")
		if !ok {
			return
		}

		var req types.PatchUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}

		updated, err := store.Patch(c.Request.Context(), devID, userID, req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

// GetUserHandler handles the request to fetch one user.
func GetUserHandler(store UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		devID, ok := developerID(c)
		if !ok {
			return
		}
		userID, ok := pathUUID(c, "user_id")
		if !ok {
			return
		}

		user, err := store.Get(c.Request.Context(), devID, userID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// ListUsersHandler handles the request to page through a developer's users.
func ListUsersHandler(store UserStore) gin.HandlerFunc {
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

		list, err := store.List(c.Request.Context(), devID, users.ListParams{
			Limit:     limit,
			Offset:    offset,
			SortBy:    c.Query("sort_by"),
			Direction: c.Query("direction"),
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": list})
	}
}
