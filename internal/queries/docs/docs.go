// Package docs implements vector similarity search over owned documents.
package docs

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/codehornets/julep/internal/queries"
	"github.com/codehornets/julep/internal/store"
	"github.com/codehornets/julep/pkg/types"
)

var searchByEmbeddingQuery = store.MustTemplate("docs.search_by_embedding", `
SELECT * FROM search_by_vector(
    $1,
    $2::vector(1024),
    $3::text[],
    $4::uuid[],
    $5,
    $6,
    $7::jsonb
);`)

var referenceShape = store.Shape{
	Name: "doc_reference",
	Fields: []store.FieldSpec{
		{Name: "id", Kind: store.KindUUID, Required: true},
		{Name: "owner", Kind: store.KindAny, Required: true},
		{Name: "title", Kind: store.KindString},
		{Name: "snippet", Kind: store.KindString},
		{Name: "distance", Kind: store.KindFloat},
		{Name: "metadata", Kind: store.KindJSON},
	},
}

var referenceFields = store.FieldMap{
	Renames: map[string]string{"doc_id": "id"},
	Derived: map[string]func(store.Row) any{
		"owner": func(r store.Row) any {
			return map[string]any{
				"id":   r.Get("owner_id"),
				"role": r.Get("owner_type"),
			}
		},
	},
	Drop: []string{"owner_id", "owner_type", "developer_id"},
}

var searchErrors = store.ErrorMapping{
	store.ClassUniqueViolation: {Status: http.StatusNotFound, Message: "Developer not found"},
	store.ClassDataError:       {Status: http.StatusBadRequest, Message: "Invalid search parameters"},
}

var searchOp = store.NewOperation[types.DocReference]("search_docs_by_embedding", referenceShape, referenceFields, searchErrors)

// Queries runs document search operations against a store executor.
type Queries struct {
	ex *store.Executor
}

// New binds the document operations to an executor.
func New(ex *store.Executor) *Queries {
	return &Queries{ex: ex}
}

// SearchByEmbedding ranks a developer's documents by vector similarity to
// the query embedding, optionally scoped to specific owners.
func (q *Queries) SearchByEmbedding(ctx context.Context, developerID uuid.UUID, req types.DocSearchRequest) ([]types.DocReference, error) {
	if len(req.Embedding) == 0 {
		return nil, store.Invalid("empty embedding provided")
	}

	k := req.K
	if k == 0 {
		k = 10
	}
	if k < 1 {
		return nil, store.Invalid("k must be >= 1")
	}
	confidence := req.Confidence
	if confidence == 0 {
		confidence = 0.5
	}
	if confidence < -1 || confidence > 1 {
		return nil, store.Invalid("confidence must be between -1 and 1")
	}

	ownerTypes := make([]string, 0, len(req.Owners))
	ownerIDs := make([]uuid.UUID, 0, len(req.Owners))
	for _, owner := range req.Owners {
		switch owner.Role {
		case "user", "agent":
		default:
			return nil, store.Invalid("invalid owner role: %s", owner.Role)
		}
		ownerTypes = append(ownerTypes, owner.Role)
		ownerIDs = append(ownerIDs, owner.ID)
	}

	filter, err := queries.JSONParam(req.MetadataFilter)
	if err != nil {
		return nil, err
	}

	plan, err := store.NewPlan(searchByEmbeddingQuery.Query(
		developerID,
		vectorLiteral(req.Embedding),
		ownerTypes,
		ownerIDs,
		k,
		confidence,
		filter,
	))
	if err != nil {
		return nil, err
	}
	return searchOp.All(ctx, q.ex, plan)
}

// vectorLiteral renders an embedding in pgvector's text input format.
func vectorLiteral(embedding []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range embedding {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
