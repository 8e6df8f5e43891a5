package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/codehornets/julep/pkg/types"
)

// Gin only runs binding validation on struct bodies, so array bodies are
// checked element by element here. The tag name matches gin's so request
// types declare their rules once.
var validate = func() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	return v
}()

// EntryStore captures the entry operations required by entry handlers.
type EntryStore interface {
	Create(ctx context.Context, developerID, sessionID uuid.UUID, data []types.CreateEntryRequest) ([]types.Entry, error)
	List(ctx context.Context, developerID, sessionID uuid.UUID, limit, offset int) ([]types.Entry, error)
	AddRelations(ctx context.Context, developerID, sessionID uuid.UUID, data []types.CreateRelationRequest) ([]types.Relation, error)
}

// CreateEntriesHandler handles the request to append entries to a session.
func CreateEntriesHandler(store EntryStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		devID, ok := developerID(c)
		if !ok {
			return
		}
		sessionID, ok := pathUUID(c, "session_id")
		if !ok {
			return
		}

		var req []types.CreateEntryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		for i := range req {
			if err := validate.Struct(&req[i]); err != nil {
				bindError(c, err)
				return
			}
		}

		entries, err := store.Create(c.Request.Context(), devID, sessionID, req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"items": entries})
	}
}

// ListEntriesHandler handles the request to page through a session's history.
func ListEntriesHandler(store EntryStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		devID, ok := developerID(c)
		if !ok {
			return
		}
		sessionID, ok := pathUUID(c, "session_id")
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

		entries, err := store.List(c.Request.Context(), devID, sessionID, limit, offset)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": entries})
	}
}

// AddEntryRelationsHandler handles the request to link entries in a
// session's history graph.
func AddEntryRelationsHandler(store EntryStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		devID, ok := developerID(c)
		if !ok {
			return
		}
		sessionID, ok := pathUUID(c, "session_id")
		if !ok {
			return
		}

		var req []types.CreateRelationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		for i := range req {
			if err := validate.Struct(&req[i]); err != nil {
				bindError(c, err)
				return
			}
		}

		relations, err := store.AddRelations(c.Request.Context(), devID, sessionID, req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"items": relations})
	}
}
