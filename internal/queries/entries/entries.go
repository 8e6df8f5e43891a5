// Package entries implements the domain operations for session history
// entries and their relations.
package entries

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/codehornets/julep/internal/queries"
	"github.com/codehornets/julep/internal/store"
	"github.com/codehornets/julep/pkg/types"
)

var (
	sessionExistsQuery = store.MustTemplate("entries.session_exists", `
SELECT EXISTS (
    SELECT 1 FROM sessions
    WHERE session_id = $1 AND developer_id = $2
) AS exists;`)

	createQuery = store.MustTemplate("entries.create", `
INSERT INTO entries (
    session_id,
    entry_id,
    source,
    role,
    event_type,
    name,
    content,
    tool_call_id,
    tool_calls,
    model,
    token_count,
    tokenizer,
    created_at,
    timestamp
)
VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8, $9::jsonb, $10, $11, $12, $13, $14)
RETURNING *;`)

	relationQuery = store.MustTemplate("entries.create_relation", `
INSERT INTO entry_relations (
    session_id,
    head,
    relation,
    tail
)
VALUES ($1, $2, $3, $4)
RETURNING *;`)

	listQuery = store.MustTemplate("entries.list", `
SELECT
    entry_id,
    session_id,
    source,
    role,
    event_type,
    name,
    content,
    tool_call_id,
    tool_calls,
    model,
    token_count,
    tokenizer,
    created_at,
    timestamp
FROM entries
WHERE session_id = $1
ORDER BY timestamp ASC
LIMIT $2 OFFSET $3;`)
)

var entryShape = store.Shape{
	Name: "entry",
	Fields: []store.FieldSpec{
		{Name: "id", Kind: store.KindUUID, Required: true},
		{Name: "session_id", Kind: store.KindUUID, Required: true},
		{Name: "source", Kind: store.KindString},
		{Name: "role", Kind: store.KindString, Required: true},
		{Name: "event_type", Kind: store.KindString},
		{Name: "name", Kind: store.KindString},
		{Name: "content", Kind: store.KindJSON},
		{Name: "tool_call_id", Kind: store.KindString},
		{Name: "tool_calls", Kind: store.KindJSON},
		{Name: "model", Kind: store.KindString},
		{Name: "token_count", Kind: store.KindInt},
		{Name: "tokenizer", Kind: store.KindString},
		{Name: "created_at", Kind: store.KindTime, Required: true},
		{Name: "timestamp", Kind: store.KindFloat},
	},
}

var relationShape = store.Shape{
	Name: "relation",
	Fields: []store.FieldSpec{
		{Name: "session_id", Kind: store.KindUUID, Required: true},
		{Name: "head", Kind: store.KindUUID, Required: true},
		{Name: "relation", Kind: store.KindString, Required: true},
		{Name: "tail", Kind: store.KindUUID, Required: true},
	},
}

var entryFields = store.FieldMap{
	Renames: map[string]string{"entry_id": "id"},
}

var createErrors = store.ErrorMapping{
	store.ClassForeignKeyViolation: {Status: http.StatusNotFound, Message: "Session not found"},
	store.ClassUniqueViolation:     {Status: http.StatusConflict, Message: "Entry already exists"},
	store.ClassNotNullViolation:    {Status: http.StatusBadRequest, Message: "Not null violation"},
	store.ClassNoData:              {Status: http.StatusNotFound, Message: "Session not found"},
}

var (
	createOp = store.NewOperation[types.Entry]("create_entries", entryShape, entryFields, createErrors)
	listOp   = store.NewOperation[types.Entry]("list_entries", entryShape, entryFields, store.ErrorMapping{
		store.ClassNoData: {Status: http.StatusNotFound, Message: "Session not found"},
	})
	relationsOp = store.NewOperation[types.Relation]("add_entry_relations", relationShape, store.FieldMap{}, store.ErrorMapping{
		store.ClassForeignKeyViolation: {Status: http.StatusNotFound, Message: "Session not found"},
		store.ClassUniqueViolation:     {Status: http.StatusConflict, Message: "Relation already exists"},
		store.ClassNoData:              {Status: http.StatusNotFound, Message: "Session not found"},
	})
)

// Queries runs entry operations against a store executor.
type Queries struct {
	ex *store.Executor
}

// New binds the entry operations to an executor.
func New(ex *store.Executor) *Queries {
	return &Queries{ex: ex}
}

// Create appends entries to a session. The plan guards on the session
// existing for this developer before the batched insert runs, so a missing
// session surfaces as a not-found error without touching the entries table.
func (q *Queries) Create(ctx context.Context, developerID, sessionID uuid.UUID, data []types.CreateEntryRequest) ([]types.Entry, error) {
	if len(data) == 0 {
		return nil, store.Invalid("at least one entry must be provided")
	}

	now := time.Now().UTC()
	batch := make([][]any, 0, len(data))
	for _, item := range data {
		if strings.TrimSpace(item.Role) == "" {
			return nil, store.Invalid("entry role is required")
		}

		id := uuid.Nil
		if item.ID != nil {
			id = *item.ID
		}
		if id == uuid.Nil {
			fresh, err := uuid.NewV7()
			if err != nil {
				return nil, err
			}
			id = fresh
		}

		content, err := queries.MarshalValue(item.Content)
		if err != nil {
			return nil, err
		}
		var toolCalls any
		if item.ToolCalls != nil {
			marshaled, err := queries.MarshalValue(item.ToolCalls)
			if err != nil {
				return nil, err
			}
			toolCalls = marshaled
		}

		eventType := item.EventType
		if eventType == "" {
			eventType = "message.create"
		}
		createdAt := now
		if item.CreatedAt != nil {
			createdAt = *item.CreatedAt
		}

		batch = append(batch, []any{
			sessionID,
			id,
			item.Source,
			item.Role,
			eventType,
			item.Name,
			content,
			item.ToolCallID,
			toolCalls,
			item.Model,
			item.TokenCount,
			tokenizerFor(item.Model),
			createdAt,
			float64(now.UnixNano()) / float64(time.Second),
		})
	}

	plan, err := store.NewPlan(
		sessionExistsQuery.QueryRow(sessionID, developerID).Require(),
		createQuery.QueryBatch(batch),
	)
	if err != nil {
		return nil, err
	}
	return createOp.All(ctx, q.ex, plan)
}

// List pages through a session's entries in timestamp order.
func (q *Queries) List(ctx context.Context, developerID, sessionID uuid.UUID, limit, offset int) ([]types.Entry, error) {
	if limit == 0 {
		limit = 100
	}
	if err := queries.ValidatePage(limit, offset); err != nil {
		return nil, err
	}

	plan, err := store.NewPlan(
		sessionExistsQuery.QueryRow(sessionID, developerID).Require(),
		listQuery.Query(sessionID, limit, offset),
	)
	if err != nil {
		return nil, err
	}
	return listOp.All(ctx, q.ex, plan)
}

// AddRelations links entries within a session's history graph, guarded on
// the session existing.
func (q *Queries) AddRelations(ctx context.Context, developerID, sessionID uuid.UUID, data []types.CreateRelationRequest) ([]types.Relation, error) {
	if len(data) == 0 {
		return nil, store.Invalid("at least one relation must be provided")
	}

	batch := make([][]any, 0, len(data))
	for _, item := range data {
		if strings.TrimSpace(item.Relation) == "" {
			return nil, store.Invalid("relation kind is required")
		}
		batch = append(batch, []any{sessionID, item.Head, item.Relation, item.Tail})
	}

	plan, err := store.NewPlan(
		sessionExistsQuery.QueryRow(sessionID, developerID).Require(),
		relationQuery.QueryBatch(batch),
	)
	if err != nil {
		return nil, err
	}
	return relationsOp.All(ctx, q.ex, plan)
}

// tokenizerFor names the tokenizer family used to count tokens for a model.
func tokenizerFor(model string) string {
	switch {
	case model == "":
		return "unknown"
	case strings.HasPrefix(model, "gpt-4o"), strings.HasPrefix(model, "o1"):
		return "o200k_base"
	case strings.HasPrefix(model, "gpt-"):
		return "cl100k_base"
	case strings.HasPrefix(model, "claude"):
		return "claude"
	default:
		return "cl100k_base"
	}
}
