package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/codehornets/julep/pkg/types"
)

// DocStore captures the document operations required by doc handlers.
type DocStore interface {
	SearchByEmbedding(ctx context.Context, developerID uuid.UUID, req types.DocSearchRequest) ([]types.DocReference, error)
}

// SearchDocsHandler handles the request to rank documents by vector similarity.
func SearchDocsHandler(store DocStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		devID, ok := developerID(c)
		if !ok {
			return
		}

		var req types.DocSearchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}

		refs, err := store.SearchByEmbedding(c.Request.Context(), devID, req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": refs})
	}
}
