package store

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

var itemShape = Shape{
	Name: "item",
	Fields: []FieldSpec{
		{Name: "id", Kind: KindInt, Required: true},
		{Name: "name", Kind: KindString, Required: true},
	},
}

func TestNewOperationPanicsOnFieldMapMismatch(t *testing.T) {
	bad := FieldMap{Renames: map[string]string{"item_id": "ghost"}}
	assert.Panics(t, func() {
		NewOperation[item]("bad_op", itemShape, bad, nil)
	})
}

func TestOperationOne(t *testing.T) {
	db := newTestDB(t)
	ex := NewExecutor(db)

	_, err := db.Exec("INSERT INTO items (id, name) VALUES (1, 'a')")
	require.NoError(t, err)

	op := NewOperation[item]("get_item", itemShape, FieldMap{}, ErrorMapping{
		ClassNoData: {Status: http.StatusNotFound, Message: "Item not found"},
	})

	read := MustTemplate("items.get", "SELECT id, name FROM items WHERE id = ?")
	p, err := NewPlan(read.QueryRow(1))
	require.NoError(t, err)

	got, err := op.One(context.Background(), ex, p)
	require.NoError(t, err)
	assert.Equal(t, item{ID: 1, Name: "a"}, got)
}

func TestOperationOneNotFoundUsesMapping(t *testing.T) {
	db := newTestDB(t)
	ex := NewExecutor(db)

	op := NewOperation[item]("get_item", itemShape, FieldMap{}, ErrorMapping{
		ClassNoData: {Status: http.StatusNotFound, Message: "Item not found"},
	})

	read := MustTemplate("items.get", "SELECT id, name FROM items WHERE id = ?")
	p, err := NewPlan(read.QueryRow(42))
	require.NoError(t, err)

	_, err = op.One(context.Background(), ex, p)
	var de *DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, http.StatusNotFound, de.Status)
	assert.Equal(t, "Item not found", de.Message)
}

func TestOperationOneNotFoundFallsBackToGeneric404(t *testing.T) {
	db := newTestDB(t)
	ex := NewExecutor(db)

	op := NewOperation[item]("get_item", itemShape, FieldMap{}, nil)

	read := MustTemplate("items.get", "SELECT id, name FROM items WHERE id = ?")
	p, err := NewPlan(read.QueryRow(42))
	require.NoError(t, err)

	_, err = op.One(context.Background(), ex, p)
	var de *DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, http.StatusNotFound, de.Status)
	assert.Contains(t, de.Message, "item not found")
}

func TestOperationAll(t *testing.T) {
	db := newTestDB(t)
	ex := NewExecutor(db)

	_, err := db.Exec("INSERT INTO items (id, name) VALUES (1, 'a'), (2, 'b')")
	require.NoError(t, err)

	op := NewOperation[item]("list_items", itemShape, FieldMap{}, nil)

	read := MustTemplate("items.list", "SELECT id, name FROM items ORDER BY id")
	p, err := NewPlan(read.Query())
	require.NoError(t, err)

	got, err := op.All(context.Background(), ex, p)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Name)
	assert.Equal(t, "b", got[1].Name)
}

func TestOperationAllEmptyIsNonNil(t *testing.T) {
	db := newTestDB(t)
	ex := NewExecutor(db)

	op := NewOperation[item]("list_items", itemShape, FieldMap{}, nil)

	read := MustTemplate("items.list", "SELECT id, name FROM items")
	p, err := NewPlan(read.Query())
	require.NoError(t, err)

	got, err := op.All(context.Background(), ex, p)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestOperationOneRenamesColumns(t *testing.T) {
	db := newTestDB(t)
	ex := NewExecutor(db)

	type record struct {
		ID        int64     `json:"id"`
		Name      string    `json:"name"`
		DeletedAt time.Time `json:"deleted_at"`
	}
	shape := Shape{
		Name: "deleted_item",
		Fields: []FieldSpec{
			{Name: "id", Kind: KindInt, Required: true},
			{Name: "name", Kind: KindString, Required: true},
			{Name: "deleted_at", Kind: KindTime, Required: true},
		},
	}
	now := time.Now().UTC()
	fields := FieldMap{
		Renames: map[string]string{"item_id": "id"},
		Derived: map[string]func(Row) any{
			"deleted_at": func(Row) any { return now },
		},
	}

	_, err := db.Exec("INSERT INTO items (id, name) VALUES (7, 'gone')")
	require.NoError(t, err)

	op := NewOperation[record]("delete_item", shape, fields, nil)

	del := MustTemplate("items.delete", "DELETE FROM items WHERE id = ? RETURNING id AS item_id, name")
	p, err := NewPlan(del.QueryRow(7))
	require.NoError(t, err)

	got, err := op.One(context.Background(), ex, p)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.ID)
	assert.Equal(t, "gone", got.Name)
	assert.True(t, now.Equal(got.DeletedAt))
}

func TestOperationOneRejectsMultipleRows(t *testing.T) {
	db := newTestDB(t)
	ex := NewExecutor(db)

	_, err := db.Exec("INSERT INTO items (id, name) VALUES (1, 'a'), (2, 'b')")
	require.NoError(t, err)

	op := NewOperation[item]("get_item", itemShape, FieldMap{}, nil)

	// FetchMany plan feeding One: the executor returns both rows and One
	// must refuse to truncate
	read := MustTemplate("items.list", "SELECT id, name FROM items")
	p, err := NewPlan(read.Query())
	require.NoError(t, err)

	_, err = op.One(context.Background(), ex, p)
	var de *DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, http.StatusInternalServerError, de.Status)
}

func TestOperationUUIDRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ex := NewExecutor(db)

	_, err := db.Exec("CREATE TABLE owners (owner_id TEXT PRIMARY KEY, role TEXT NOT NULL)")
	require.NoError(t, err)

	type owner struct {
		ID   uuid.UUID `json:"id"`
		Role string    `json:"role"`
	}
	shape := Shape{
		Name: "owner",
		Fields: []FieldSpec{
			{Name: "id", Kind: KindUUID, Required: true},
			{Name: "role", Kind: KindString, Required: true},
		},
	}

	id := uuid.New()
	_, err = db.Exec("INSERT INTO owners (owner_id, role) VALUES (?, 'user')", id.String())
	require.NoError(t, err)

	op := NewOperation[owner]("get_owner", shape, FieldMap{
		Renames: map[string]string{"owner_id": "id"},
	}, nil)

	read := MustTemplate("owners.get", "SELECT owner_id, role FROM owners WHERE owner_id = ?")
	p, err := NewPlan(read.QueryRow(id.String()))
	require.NoError(t, err)

	got, err := op.One(context.Background(), ex, p)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "user", got.Role)
}
