// Package developers implements the domain operations for developer
// records.
package developers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/codehornets/julep/internal/queries"
	"github.com/codehornets/julep/internal/store"
	"github.com/codehornets/julep/pkg/types"
)

var (
	createQuery = store.MustTemplate("developers.create", `
INSERT INTO developers (
    developer_id,
    email,
    active,
    tags,
    settings
)
VALUES ($1, $2, $3, $4, $5::jsonb)
RETURNING *;`)

	getQuery = store.MustTemplate("developers.get", `
SELECT
    developer_id,
    email,
    active,
    tags,
    settings,
    created_at,
    updated_at
FROM developers
WHERE developer_id = $1;`)
)

var createdShape = store.Shape{
	Name: "developer",
	Fields: []store.FieldSpec{
		{Name: "id", Kind: store.KindUUID, Required: true},
		{Name: "created_at", Kind: store.KindTime, Required: true},
	},
}

var developerShape = store.Shape{
	Name: "developer",
	Fields: []store.FieldSpec{
		{Name: "id", Kind: store.KindUUID, Required: true},
		{Name: "email", Kind: store.KindString, Required: true},
		{Name: "active", Kind: store.KindBool, Required: true},
		{Name: "tags", Kind: store.KindAny},
		{Name: "settings", Kind: store.KindJSON},
		{Name: "created_at", Kind: store.KindTime, Required: true},
		{Name: "updated_at", Kind: store.KindTime, Required: true},
	},
}

var developerFields = store.FieldMap{
	Renames: map[string]string{"developer_id": "id"},
}

var (
	createOp = store.NewOperation[types.ResourceCreated]("create_developer", createdShape, developerFields, store.ErrorMapping{
		store.ClassUniqueViolation: {Status: http.StatusConflict, Message: "A developer with this ID or email already exists."},
		store.ClassDataError:       {Status: http.StatusBadRequest, Message: "Invalid data provided. Please check the input values."},
	})
	getOp = store.NewOperation[types.Developer]("get_developer", developerShape, developerFields, store.ErrorMapping{
		store.ClassNoData: {Status: http.StatusNotFound, Message: "Developer not found"},
	})
)

// Queries runs developer operations against a store executor.
type Queries struct {
	ex *store.Executor
}

// New binds the developer operations to an executor.
func New(ex *store.Executor) *Queries {
	return &Queries{ex: ex}
}

// Create registers a developer. A zero developerID is replaced with a fresh
// v7 UUID.
func (q *Queries) Create(ctx context.Context, developerID uuid.UUID, req types.CreateDeveloperRequest) (types.ResourceCreated, error) {
	if strings.TrimSpace(req.Email) == "" {
		return types.ResourceCreated{}, store.Invalid("developer email is required")
	}

	if developerID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return types.ResourceCreated{}, err
		}
		developerID = id
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}
	settings, err := queries.JSONParam(req.Settings)
	if err != nil {
		return types.ResourceCreated{}, err
	}

	plan, err := store.NewPlan(createQuery.QueryRow(developerID, req.Email, active, tags, settings))
	if err != nil {
		return types.ResourceCreated{}, err
	}
	return createOp.One(ctx, q.ex, plan)
}

// Get fetches one developer by id.
func (q *Queries) Get(ctx context.Context, developerID uuid.UUID) (types.Developer, error) {
	plan, err := store.NewPlan(getQuery.QueryRow(developerID))
	if err != nil {
		return types.Developer{}, err
	}
	return getOp.One(ctx, q.ex, plan)
}
