package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/codehornets/julep/pkg/types"
)

// SessionStore captures the session operations required by session handlers.
type SessionStore interface {
	Create(ctx context.Context, developerID uuid.UUID, sessionID *uuid.UUID, req types.CreateSessionRequest) (types.Session, error)
	Patch(ctx context.Context, developerID, sessionID uuid.UUID, req types.PatchSessionRequest) (types.ResourceUpdated, error)
	Get(ctx context.Context, developerID, sessionID uuid.UUID) (types.Session, error)
}

// CreateSessionHandler handles the request to start a session.
func CreateSessionHandler(store SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		devID, ok := developerID(c)
		if !ok {
			return
		}

		var req types.CreateSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}

		session, err := store.Create(c.Request.Context(), devID, nil, req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, session)
	}
}

// CreateOrReplaceSessionHandler handles the request to create a session with
// a caller-chosen id.
func CreateOrReplaceSessionHandler(store SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		devID, ok := developerID(c)
		if !ok {
			return
		}
		sessionID, ok := pathUUID(c, "session_id")
		if !ok {
			return
		}

		var req types.CreateSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}

		session, err := store.Create(c.Request.Context(), devID, &sessionID, req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, session)
	}
}

// PatchSessionHandler handles the request to partially update a session.
func PatchSessionHandler(store SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		devID, ok := developerID(c)
		if !ok {
			return
		}
		sessionID, ok := pathUUID(c, "session_id")
		if !ok {
			return
		}

		var req types.PatchSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}

		updated, err := store.Patch(c.Request.Context(), devID, sessionID, req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

// GetSessionHandler handles the request to fetch one session.
func GetSessionHandler(store SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		devID, ok := developerID(c)
		if !ok {
			return
		}
		sessionID, ok := pathUUID(c, "session_id")
		if !ok {
			return
		}

		session, err := store.Get(c.Request.Context(), devID, sessionID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, session)
	}
}
