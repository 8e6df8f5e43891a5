package store

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRecord struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Metadata  json.RawMessage `json:"metadata"`
	CreatedAt time.Time       `json:"created_at"`
	About     *string         `json:"about,omitempty"`
}

var testShape = Shape{
	Name: "record",
	Fields: []FieldSpec{
		{Name: "id", Kind: KindUUID, Required: true},
		{Name: "name", Kind: KindString, Required: true},
		{Name: "metadata", Kind: KindJSON},
		{Name: "created_at", Kind: KindTime, Required: true},
		{Name: "about", Kind: KindString},
	},
}

func TestFieldMapApplyRenamesAndDerives(t *testing.T) {
	m := FieldMap{
		Renames: map[string]string{"record_id": "id"},
		Derived: map[string]func(Row) any{
			"label": func(r Row) any { return r.Get("name") },
		},
		Drop: []string{"internal_flag"},
	}

	r := NewRow().
		With("record_id", "abc").
		With("name", "n").
		With("internal_flag", true)

	out := m.Apply(r)
	assert.Equal(t, "abc", out.Get("id"))
	assert.Equal(t, "n", out.Get("label"))
	assert.False(t, out.Has("record_id"))
	assert.False(t, out.Has("internal_flag"))

	// input row untouched
	assert.True(t, r.Has("record_id"))
}

func TestFieldMapDerivesFromUntransformedRow(t *testing.T) {
	m := FieldMap{
		Renames: map[string]string{"owner_id": "id"},
		Derived: map[string]func(Row) any{
			"owner": func(r Row) any { return r.Get("owner_id") },
		},
	}
	r := NewRow().With("owner_id", "o1")
	out := m.Apply(r)
	assert.Equal(t, "o1", out.Get("owner"))
}

func TestFieldMapCheckAgainst(t *testing.T) {
	ok := FieldMap{Renames: map[string]string{"record_id": "id"}}
	require.NoError(t, ok.CheckAgainst(testShape))

	badRename := FieldMap{Renames: map[string]string{"record_id": "nope"}}
	require.Error(t, badRename.CheckAgainst(testShape))

	badDerived := FieldMap{Derived: map[string]func(Row) any{
		"ghost": func(Row) any { return nil },
	}}
	require.Error(t, badDerived.CheckAgainst(testShape))
}

func TestShapeValidate(t *testing.T) {
	valid := NewRow().
		With("id", uuid.New().String()).
		With("name", "n").
		With("created_at", time.Now())
	require.NoError(t, testShape.validate(valid))

	missing := NewRow().With("name", "n").With("created_at", time.Now())
	err := testShape.validate(missing)
	var me *MaterializationError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "id", me.Field)

	wrongType := valid.With("name", 42)
	err = testShape.validate(wrongType)
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "name", me.Field)

	// optional fields may be absent or nil
	withNil := valid.With("about", nil)
	require.NoError(t, testShape.validate(withNil))
}

func TestDecodeRow(t *testing.T) {
	id := uuid.New()
	created := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	r := NewRow().
		With("record_id", id.String()).
		With("name", []byte("my record")).
		With("metadata", []byte(`{"k":"v"}`)).
		With("created_at", created)

	m := FieldMap{Renames: map[string]string{"record_id": "id"}}
	rec, err := decodeRow[testRecord](m.Apply(r), testShape)
	require.NoError(t, err)

	assert.Equal(t, id, rec.ID)
	assert.Equal(t, "my record", rec.Name)
	assert.JSONEq(t, `{"k":"v"}`, string(rec.Metadata))
	assert.True(t, created.Equal(rec.CreatedAt))
	assert.Nil(t, rec.About)
}

func TestDecodeRowTimeFromString(t *testing.T) {
	r := NewRow().
		With("id", uuid.New().String()).
		With("name", "n").
		With("created_at", "2025-03-14T09:26:53.123456Z")

	rec, err := decodeRow[testRecord](r, testShape)
	require.NoError(t, err)
	assert.Equal(t, 2025, rec.CreatedAt.Year())
}

func TestParseTextArray(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, parseTextArray("{a,b}"))
	assert.Equal(t, []string{}, parseTextArray("{}"))
	assert.Equal(t, []string{"with space", `quo"te`}, parseTextArray(`{"with space","quo\"te"}`))
	assert.Equal(t, []string{"one"}, parseTextArray("{one}"))
}

func TestDecodeRowOptionalPointer(t *testing.T) {
	r := NewRow().
		With("id", uuid.New().String()).
		With("name", "n").
		With("created_at", time.Now()).
		With("about", "hello")

	rec, err := decodeRow[testRecord](r, testShape)
	require.NoError(t, err)
	require.NotNil(t, rec.About)
	assert.Equal(t, "hello", *rec.About)
}
