// Package sessions implements the domain operations for session records.
package sessions

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/codehornets/julep/internal/queries"
	"github.com/codehornets/julep/internal/store"
	"github.com/codehornets/julep/pkg/types"
)

var (
	createQuery = store.MustTemplate("sessions.create", `
INSERT INTO sessions (
    developer_id,
    session_id,
    situation,
    system_template,
    metadata,
    render_templates,
    token_budget,
    context_overflow,
    forward_tool_calls,
    recall_options
)
VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8, $9, $10::jsonb)
RETURNING *;`)

	lookupQuery = store.MustTemplate("sessions.create_lookup", `
INSERT INTO session_lookup (
    developer_id,
    session_id,
    participant_type,
    participant_id
)
VALUES ($1, $2, $3, $4);`)

	patchQuery = store.MustTemplate("sessions.patch", `
WITH updated_session AS (
    UPDATE sessions
    SET
        situation = COALESCE($3, situation),
        system_template = COALESCE($4, system_template),
        metadata = sessions.metadata || $5::jsonb,
        render_templates = COALESCE($6, render_templates),
        token_budget = COALESCE($7, token_budget),
        context_overflow = COALESCE($8, context_overflow),
        forward_tool_calls = COALESCE($9, forward_tool_calls),
        recall_options = sessions.recall_options || $10::jsonb
    WHERE
        developer_id = $1
        AND session_id = $2
    RETURNING *
)
SELECT session_id, updated_at FROM updated_session;`)

	getQuery = store.MustTemplate("sessions.get", `
SELECT
    session_id,
    developer_id,
    situation,
    system_template,
    metadata,
    render_templates,
    token_budget,
    context_overflow,
    forward_tool_calls,
    recall_options,
    created_at,
    updated_at
FROM sessions
WHERE developer_id = $1 AND session_id = $2;`)
)

var sessionShape = store.Shape{
	Name: "session",
	Fields: []store.FieldSpec{
		{Name: "id", Kind: store.KindUUID, Required: true},
		{Name: "developer_id", Kind: store.KindUUID, Required: true},
		{Name: "situation", Kind: store.KindString},
		{Name: "system_template", Kind: store.KindString},
		{Name: "metadata", Kind: store.KindJSON},
		{Name: "render_templates", Kind: store.KindBool},
		{Name: "token_budget", Kind: store.KindInt},
		{Name: "context_overflow", Kind: store.KindString},
		{Name: "forward_tool_calls", Kind: store.KindBool},
		{Name: "recall_options", Kind: store.KindJSON},
		{Name: "created_at", Kind: store.KindTime, Required: true},
		{Name: "updated_at", Kind: store.KindTime, Required: true},
	},
}

var updatedShape = store.Shape{
	Name: "session",
	Fields: []store.FieldSpec{
		{Name: "id", Kind: store.KindUUID, Required: true},
		{Name: "updated_at", Kind: store.KindTime, Required: true},
	},
}

var sessionFields = store.FieldMap{
	Renames: map[string]string{"session_id": "id"},
}

var createErrors = store.ErrorMapping{
	store.ClassForeignKeyViolation: {Status: http.StatusNotFound, Message: "The specified developer or participant does not exist."},
	store.ClassUniqueViolation:     {Status: http.StatusConflict, Message: "A session with this ID already exists."},
}

var (
	createOp = store.NewOperation[types.Session]("create_session", sessionShape, sessionFields, createErrors)
	patchOp  = store.NewOperation[types.ResourceUpdated]("patch_session", updatedShape, sessionFields, store.ErrorMapping{
		store.ClassForeignKeyViolation: {Status: http.StatusNotFound, Message: "The specified developer or session does not exist."},
		store.ClassNoData:              {Status: http.StatusNotFound, Message: "Session not found"},
		store.ClassCheckViolation:      {Status: http.StatusBadRequest, Message: "Invalid session data provided."},
	})
	getOp = store.NewOperation[types.Session]("get_session", sessionShape, sessionFields, store.ErrorMapping{
		store.ClassNoData: {Status: http.StatusNotFound, Message: "Session not found"},
	})
)

// Queries runs session operations against a store executor.
type Queries struct {
	ex *store.Executor
}

// New binds the session operations to an executor.
func New(ex *store.Executor) *Queries {
	return &Queries{ex: ex}
}

// Create inserts a session and its participant lookup rows in one plan. The
// session insert is authoritative; the lookup inserts are side effects that
// must still run. A nil sessionID is replaced with a fresh v7 UUID.
func (q *Queries) Create(ctx context.Context, developerID uuid.UUID, sessionID *uuid.UUID, req types.CreateSessionRequest) (types.Session, error) {
	if req.Agent != nil && len(req.Agents) > 0 {
		return types.Session{}, store.Invalid("only one of 'agent' or 'agents' should be provided")
	}

	agents := req.Agents
	if req.Agent != nil {
		agents = []uuid.UUID{*req.Agent}
	}
	if len(agents) == 0 {
		return types.Session{}, store.Invalid("at least one agent must be provided")
	}

	users := req.Users
	if req.User != nil {
		users = append([]uuid.UUID{*req.User}, req.Users...)
	}

	id := uuid.Nil
	if sessionID != nil {
		id = *sessionID
	}
	if id == uuid.Nil {
		fresh, err := uuid.NewV7()
		if err != nil {
			return types.Session{}, err
		}
		id = fresh
	}

	metadata, err := queries.JSONParam(req.Metadata)
	if err != nil {
		return types.Session{}, err
	}
	recall, err := queries.JSONParam(req.RecallOptions)
	if err != nil {
		return types.Session{}, err
	}

	var lookups [][]any
	for _, u := range users {
		lookups = append(lookups, []any{developerID, id, "user", u})
	}
	for _, a := range agents {
		lookups = append(lookups, []any{developerID, id, "agent", a})
	}

	plan, err := store.NewPlan(
		createQuery.QueryRow(
			developerID,
			id,
			req.Situation,
			req.SystemTemplate,
			metadata,
			req.RenderTemplates,
			req.TokenBudget,
			req.ContextOverflow,
			req.ForwardToolCalls,
			recall,
		),
		lookupQuery.ExecBatch(lookups),
	)
	if err != nil {
		return types.Session{}, err
	}
	plan, err = plan.ResultAt(0)
	if err != nil {
		return types.Session{}, err
	}
	return createOp.One(ctx, q.ex, plan)
}

// Patch applies a partial update; metadata and recall options merge into
// the stored values.
func (q *Queries) Patch(ctx context.Context, developerID, sessionID uuid.UUID, req types.PatchSessionRequest) (types.ResourceUpdated, error) {
	metadata, err := queries.JSONParam(req.Metadata)
	if err != nil {
		return types.ResourceUpdated{}, err
	}
	recall, err := queries.JSONParam(req.RecallOptions)
	if err != nil {
		return types.ResourceUpdated{}, err
	}

	plan, err := store.NewPlan(patchQuery.QueryRow(
		developerID,
		sessionID,
		req.Situation,
		req.SystemTemplate,
		metadata,
		req.RenderTemplates,
		req.TokenBudget,
		req.ContextOverflow,
		req.ForwardToolCalls,
		recall,
	))
	if err != nil {
		return types.ResourceUpdated{}, err
	}
	return patchOp.One(ctx, q.ex, plan)
}

// Get fetches one session by id.
func (q *Queries) Get(ctx context.Context, developerID, sessionID uuid.UUID) (types.Session, error) {
	plan, err := store.NewPlan(getQuery.QueryRow(developerID, sessionID))
	if err != nil {
		return types.Session{}, err
	}
	return getOp.One(ctx, q.ex, plan)
}
