// Package users implements the domain operations for user records.
package users

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
	createOrUpdateQuery = store.MustTemplate("users.create_or_update", `
INSERT INTO users (
    developer_id,
    user_id,
    name,
    about,
    metadata
)
VALUES (
    $1,
    $2,
    $3,
    $4,
    COALESCE($5::jsonb, '{}'::jsonb)
)
ON CONFLICT (developer_id, user_id) DO UPDATE SET
    name = EXCLUDED.name,
    about = EXCLUDED.about,
    metadata = EXCLUDED.metadata
RETURNING *;`)

	patchQuery = store.MustTemplate("users.patch", `
UPDATE users
SET
    name = CASE
        WHEN $3::text IS NOT NULL THEN $3
        ELSE name
    END,
    about = CASE
        WHEN $4::text IS NOT NULL THEN $4
        ELSE about
    END,
    metadata = CASE
        WHEN $5::jsonb IS NOT NULL THEN metadata || $5::jsonb
        ELSE metadata
    END
WHERE developer_id = $1
AND user_id = $2
RETURNING
    user_id AS id,
    developer_id,
    name,
    about,
    metadata,
    created_at,
    updated_at;`)

	getQuery = store.MustTemplate("users.get", `
SELECT
    user_id,
    developer_id,
    name,
    about,
    metadata,
    created_at,
    updated_at
FROM users
WHERE developer_id = $1 AND user_id = $2;`)

	listQuery = store.MustTemplate("users.list", `
SELECT
    user_id,
    developer_id,
    name,
    about,
    metadata,
    created_at,
    updated_at
FROM users
WHERE developer_id = $1
ORDER BY
    CASE WHEN $4 = 'created_at' AND $5 = 'asc' THEN created_at END ASC NULLS LAST,
    CASE WHEN $4 = 'created_at' AND $5 = 'desc' THEN created_at END DESC NULLS LAST,
    CASE WHEN $4 = 'updated_at' AND $5 = 'asc' THEN updated_at END ASC NULLS LAST,
    CASE WHEN $4 = 'updated_at' AND $5 = 'desc' THEN updated_at END DESC NULLS LAST
LIMIT $2 OFFSET $3;`)
)

var userShape = store.Shape{
	Name: "user",
	Fields: []store.FieldSpec{
		{Name: "id", Kind: store.KindUUID, Required: true},
		{Name: "developer_id", Kind: store.KindUUID, Required: true},
		{Name: "name", Kind: store.KindString, Required: true},
		{Name: "about", Kind: store.KindString},
		{Name: "metadata", Kind: store.KindJSON},
		{Name: "created_at", Kind: store.KindTime, Required: true},
		{Name: "updated_at", Kind: store.KindTime, Required: true},
	},
}

var updatedShape = store.Shape{
	Name: "user",
	Fields: []store.FieldSpec{
		{Name: "id", Kind: store.KindUUID, Required: true},
		{Name: "updated_at", Kind: store.KindTime, Required: true},
	},
}

var userFields = store.FieldMap{
	Renames: map[string]string{"user_id": "id"},
}

var writeErrors = store.ErrorMapping{
	store.ClassForeignKeyViolation: {Status: http.StatusNotFound, Message: "The specified developer does not exist."},
	store.ClassUniqueViolation:     {Status: http.StatusConflict, Message: "A user with this ID already exists for the specified developer."},
	store.ClassDataError:           {Status: http.StatusBadRequest, Message: "Invalid data provided. Please check the input values."},
}

var readErrors = store.ErrorMapping{
	store.ClassNoData:    {Status: http.StatusNotFound, Message: "User not found"},
	store.ClassDataError: {Status: http.StatusBadRequest, Message: "Invalid data provided. Please check the input values."},
}

var (
	createOrUpdateOp = store.NewOperation[types.User]("create_or_update_user", userShape, userFields, writeErrors)
	patchOp          = store.NewOperation[types.ResourceUpdated]("patch_user", updatedShape, store.FieldMap{}, store.ErrorMapping{
		store.ClassForeignKeyViolation: {Status: http.StatusNotFound, Message: "The specified developer does not exist."},
		store.ClassUniqueViolation:     {Status: http.StatusConflict, Message: "A user with this ID already exists for the specified developer."},
		store.ClassNoData:              {Status: http.StatusNotFound, Message: "User not found"},
	})
	getOp  = store.NewOperation[types.User]("get_user", userShape, userFields, readErrors)
	listOp = store.NewOperation[types.User]("list_users", userShape, userFields, readErrors)
)

// Queries runs user operations against a store executor.
type Queries struct {
	ex *store.Executor
}

// New binds the user operations to an executor.
func New(ex *store.Executor) *Queries {
	return &Queries{ex: ex}
}

// CreateOrUpdate upserts a user keyed by (developer_id, user_id).
func (q *Queries) CreateOrUpdate(ctx context.Context, developerID, userID uuid.UUID, req types.CreateOrUpdateUserRequest) (types.User, error) {
	if strings.TrimSpace(req.Name) == "" {
		return types.User{}, store.Invalid("user name is required")
	}

	metadata, err := queries.NullableJSON(req.Metadata)
	if err != nil {
		return types.User{}, err
	}

	plan, err := store.NewPlan(createOrUpdateQuery.QueryRow(developerID, userID, req.Name, req.About, metadata))
	if err != nil {
		return types.User{}, err
	}
	return createOrUpdateOp.One(ctx, q.ex, plan)
}

// Patch applies a partial update; nil request fields leave the stored value
// untouched, and metadata merges rather than replaces.
func (q *Queries) Patch(ctx context.Context, developerID, userID uuid.UUID, req types.PatchUserRequest) (types.ResourceUpdated, error) {
	metadata, err := queries.NullableJSON(req.Metadata)
	if err != nil {
		return types.ResourceUpdated{}, err
	}

	plan, err := store.NewPlan(patchQuery.QueryRow(developerID, userID, req.Name, req.About, metadata))
	if err != nil {
		return types.ResourceUpdated{}, err
	}
	return patchOp.One(ctx, q.ex, plan)
}

// Get fetches one user by id.
func (q *Queries) Get(ctx context.Context, developerID, userID uuid.UUID) (types.User, error) {
	plan, err := store.NewPlan(getQuery.QueryRow(developerID, userID))
	if err != nil {
		return types.User{}, err
	}
	return getOp.One(ctx, q.ex, plan)
}

// ListParams controls pagination and ordering for List.
type ListParams struct {
	Limit     int
	Offset    int
	SortBy    string
	Direction string
}

// List pages through a developer's users.
func (q *Queries) List(ctx context.Context, developerID uuid.UUID, params ListParams) ([]types.User, error) {
	if params.Limit == 0 {
		params.Limit = 100
	}
	if params.SortBy == "" {
		params.SortBy = "created_at"
	}
	if params.Direction == "" {
		params.Direction = "desc"
	}
	params.Direction = strings.ToLower(params.Direction)

	if err := queries.ValidateSort(params.SortBy, params.Direction); err != nil {
		return nil, err
	}
	if err := queries.ValidatePage(params.Limit, params.Offset); err != nil {
		return nil, err
	}

	plan, err := store.NewPlan(listQuery.Query(developerID, params.Limit, params.Offset, params.SortBy, params.Direction))
	if err != nil {
		return nil, err
	}
	return listOp.All(ctx, q.ex, plan)
}
