// Package agents implements the domain operations for agent records.
package agents

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
	createOrUpdateQuery = store.MustTemplate("agents.create_or_update", `
INSERT INTO agents (
    developer_id,
    agent_id,
    canonical_name,
    name,
    about,
    instructions,
    model,
    metadata,
    default_settings
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9::jsonb)
RETURNING *;`)

	getQuery = store.MustTemplate("agents.get", `
SELECT
    agent_id,
    developer_id,
    name,
    canonical_name,
    about,
    instructions,
    model,
    metadata,
    default_settings,
    created_at,
    updated_at
FROM agents
WHERE developer_id = $1 AND agent_id = $2;`)

	listQuery = store.MustTemplate("agents.list", `
SELECT
    agent_id,
    developer_id,
    name,
    canonical_name,
    about,
    instructions,
    model,
    metadata,
    default_settings,
    created_at,
    updated_at
FROM agents
WHERE developer_id = $1
ORDER BY
    CASE WHEN $4 = 'created_at' AND $5 = 'asc' THEN created_at END ASC NULLS LAST,
    CASE WHEN $4 = 'created_at' AND $5 = 'desc' THEN created_at END DESC NULLS LAST,
    CASE WHEN $4 = 'updated_at' AND $5 = 'asc' THEN updated_at END ASC NULLS LAST,
    CASE WHEN $4 = 'updated_at' AND $5 = 'desc' THEN updated_at END DESC NULLS LAST
LIMIT $2 OFFSET $3;`)

	listFilteredQuery = store.MustTemplate("agents.list_filtered", `
SELECT
    agent_id,
    developer_id,
    name,
    canonical_name,
    about,
    instructions,
    model,
    metadata,
    default_settings,
    created_at,
    updated_at
FROM agents
WHERE developer_id = $1 AND metadata @> $6::jsonb
ORDER BY
    CASE WHEN $4 = 'created_at' AND $5 = 'asc' THEN created_at END ASC NULLS LAST,
    CASE WHEN $4 = 'created_at' AND $5 = 'desc' THEN created_at END DESC NULLS LAST,
    CASE WHEN $4 = 'updated_at' AND $5 = 'asc' THEN updated_at END ASC NULLS LAST,
    CASE WHEN $4 = 'updated_at' AND $5 = 'desc' THEN updated_at END DESC NULLS LAST
LIMIT $2 OFFSET $3;`)

	deleteQuery = store.MustTemplate("agents.delete", `
DELETE FROM agents
WHERE developer_id = $1 AND agent_id = $2
RETURNING agent_id;`)
)

var agentShape = store.Shape{
	Name: "agent",
	Fields: []store.FieldSpec{
		{Name: "id", Kind: store.KindUUID, Required: true},
		{Name: "developer_id", Kind: store.KindUUID, Required: true},
		{Name: "name", Kind: store.KindString, Required: true},
		{Name: "canonical_name", Kind: store.KindString, Required: true},
		{Name: "about", Kind: store.KindString},
		{Name: "instructions", Kind: store.KindAny},
		{Name: "model", Kind: store.KindString},
		{Name: "metadata", Kind: store.KindJSON},
		{Name: "default_settings", Kind: store.KindJSON},
		{Name: "created_at", Kind: store.KindTime, Required: true},
		{Name: "updated_at", Kind: store.KindTime, Required: true},
	},
}

var deletedShape = store.Shape{
	Name: "agent",
	Fields: []store.FieldSpec{
		{Name: "id", Kind: store.KindUUID, Required: true},
		{Name: "deleted_at", Kind: store.KindTime, Required: true},
	},
}

var agentFields = store.FieldMap{
	Renames: map[string]string{"agent_id": "id"},
}

var writeErrors = store.ErrorMapping{
	store.ClassForeignKeyViolation: {Status: http.StatusNotFound, Message: "The specified developer does not exist."},
	store.ClassUniqueViolation:     {Status: http.StatusConflict, Message: "An agent with this canonical name already exists for this developer."},
	store.ClassCheckViolation:      {Status: http.StatusBadRequest, Message: "The provided data violates one or more constraints. Please check the input values."},
	store.ClassDataError:           {Status: http.StatusBadRequest, Message: "Invalid data provided. Please check the input values."},
}

var readErrors = store.ErrorMapping{
	store.ClassForeignKeyViolation: {Status: http.StatusNotFound, Message: "The specified developer does not exist."},
	store.ClassDataError:           {Status: http.StatusBadRequest, Message: "Invalid data provided. Please check the input values."},
	store.ClassNoData:              {Status: http.StatusNotFound, Message: "Agent not found"},
}

var (
	createOrUpdateOp = store.NewOperation[types.Agent]("create_or_update_agent", agentShape, agentFields, writeErrors)
	getOp            = store.NewOperation[types.Agent]("get_agent", agentShape, agentFields, readErrors)
	listOp           = store.NewOperation[types.Agent]("list_agents", agentShape, agentFields, readErrors)
	deleteOp         = store.NewOperation[types.ResourceDeleted]("delete_agent", deletedShape, store.FieldMap{
		Renames: map[string]string{"agent_id": "id"},
		Derived: map[string]func(store.Row) any{
			"deleted_at": func(store.Row) any { return time.Now().UTC() },
		},
	}, readErrors)
)

// Queries runs agent operations against a store executor.
type Queries struct {
	ex *store.Executor
}

// New binds the agent operations to an executor.
func New(ex *store.Executor) *Queries {
	return &Queries{ex: ex}
}

// CreateOrUpdate inserts an agent, generating a canonical name when the
// request does not carry one.
func (q *Queries) CreateOrUpdate(ctx context.Context, developerID, agentID uuid.UUID, req types.CreateOrUpdateAgentRequest) (types.Agent, error) {
	if strings.TrimSpace(req.Name) == "" {
		return types.Agent{}, store.Invalid("agent name is required")
	}

	canonical := req.CanonicalName
	if canonical == "" {
		canonical = canonicalName(req.Name)
	}

	instructions := []string(req.Instructions)
	if instructions == nil {
		instructions = []string{}
	}

	metadata, err := queries.JSONParam(req.Metadata)
	if err != nil {
		return types.Agent{}, err
	}
	settings, err := queries.JSONParam(req.DefaultSettings)
	if err != nil {
		return types.Agent{}, err
	}

	plan, err := store.NewPlan(createOrUpdateQuery.QueryRow(
		developerID,
		agentID,
		canonical,
		req.Name,
		req.About,
		instructions,
		req.Model,
		metadata,
		settings,
	))
	if err != nil {
		return types.Agent{}, err
	}
	return createOrUpdateOp.One(ctx, q.ex, plan)
}

// Get fetches one agent by id.
func (q *Queries) Get(ctx context.Context, developerID, agentID uuid.UUID) (types.Agent, error) {
	plan, err := store.NewPlan(getQuery.QueryRow(developerID, agentID))
	if err != nil {
		return types.Agent{}, err
	}
	return getOp.One(ctx, q.ex, plan)
}

// ListParams controls pagination, ordering, and filtering for List.
type ListParams struct {
	Limit          int
	Offset         int
	SortBy         string
	Direction      string
	MetadataFilter map[string]any
}

func (p *ListParams) applyDefaults() {
	if p.Limit == 0 {
		p.Limit = 100
	}
	if p.SortBy == "" {
		p.SortBy = "created_at"
	}
	if p.Direction == "" {
		p.Direction = "desc"
	}
	p.Direction = strings.ToLower(p.Direction)
}

// List pages through a developer's agents, optionally filtered by metadata
// containment.
func (q *Queries) List(ctx context.Context, developerID uuid.UUID, params ListParams) ([]types.Agent, error) {
	params.applyDefaults()
	if err := queries.ValidateSort(params.SortBy, params.Direction); err != nil {
		return nil, err
	}
	if err := queries.ValidatePage(params.Limit, params.Offset); err != nil {
		return nil, err
	}

	stmt := listQuery.Query(developerID, params.Limit, params.Offset, params.SortBy, params.Direction)
	if len(params.MetadataFilter) > 0 {
		filter, err := queries.JSONParam(params.MetadataFilter)
		if err != nil {
			return nil, err
		}
		stmt = listFilteredQuery.Query(developerID, params.Limit, params.Offset, params.SortBy, params.Direction, filter)
	}

	plan, err := store.NewPlan(stmt)
	if err != nil {
		return nil, err
	}
	return listOp.All(ctx, q.ex, plan)
}

// Delete removes an agent.
func (q *Queries) Delete(ctx context.Context, developerID, agentID uuid.UUID) (types.ResourceDeleted, error) {
	plan, err := store.NewPlan(deleteQuery.QueryRow(developerID, agentID))
	if err != nil {
		return types.ResourceDeleted{}, err
	}
	return deleteOp.One(ctx, q.ex, plan)
}
