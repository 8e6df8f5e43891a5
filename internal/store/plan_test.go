package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTemplateValidation(t *testing.T) {
	_, err := NewTemplate("", "SELECT 1")
	require.Error(t, err)

	_, err = NewTemplate("q", "   ")
	require.Error(t, err)

	tmpl, err := NewTemplate("q", "SELECT 1")
	require.NoError(t, err)
	assert.Equal(t, "q", tmpl.Name())
	assert.Equal(t, "SELECT 1", tmpl.SQL())
}

func TestNewPlanRequiresStatements(t *testing.T) {
	_, err := NewPlan()
	require.Error(t, err)
}

func TestNewPlanRejectsAllDiscarding(t *testing.T) {
	tmpl := MustTemplate("side_effect", "UPDATE t SET x = 1")
	_, err := NewPlan(tmpl.Exec())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no fetching statement")
}

func TestNewPlanDefaultResultIsLastFetching(t *testing.T) {
	insert := MustTemplate("insert", "INSERT INTO t VALUES (?)")
	read := MustTemplate("read", "SELECT * FROM t")
	audit := MustTemplate("audit", "INSERT INTO audit VALUES (?)")

	p, err := NewPlan(insert.Exec(1), read.Query(), audit.Exec(2))
	require.NoError(t, err)
	assert.Equal(t, 1, p.ResultIndex())
}

func TestPlanResultAt(t *testing.T) {
	first := MustTemplate("first", "SELECT 1")
	second := MustTemplate("second", "SELECT 2")
	effect := MustTemplate("effect", "UPDATE t SET x = 1")

	p, err := NewPlan(first.QueryRow(), second.QueryRow())
	require.NoError(t, err)
	assert.Equal(t, 1, p.ResultIndex())

	p, err = p.ResultAt(0)
	require.NoError(t, err)
	assert.Equal(t, 0, p.ResultIndex())

	_, err = p.ResultAt(5)
	require.Error(t, err)

	p2, err := NewPlan(effect.Exec(), first.QueryRow())
	require.NoError(t, err)
	_, err = p2.ResultAt(0)
	require.Error(t, err)
}

func TestRequireOnlyOnSingleRowStatements(t *testing.T) {
	tmpl := MustTemplate("exists", "SELECT EXISTS (SELECT 1 FROM t) AS e")

	_, err := NewPlan(tmpl.QueryRow().Require(), tmpl.QueryRow())
	require.NoError(t, err)

	many := MustTemplate("all", "SELECT * FROM t")
	_, err = NewPlan(many.Query().Require())
	require.Error(t, err)

	_, err = NewPlan(tmpl.QueryRowBatch([][]any{{1}}).Require())
	require.Error(t, err)
}

func TestBatchRequiresParameterLists(t *testing.T) {
	tmpl := MustTemplate("insert", "INSERT INTO t VALUES (?)")
	read := MustTemplate("read", "SELECT * FROM t")

	_, err := NewPlan(tmpl.ExecBatch(nil), read.Query())
	require.Error(t, err)

	_, err = NewPlan(tmpl.ExecBatch([][]any{{1}, {2}}), read.Query())
	require.NoError(t, err)
}
