package store

import (
	"fmt"
	"strings"
)

// FetchMode declares how many rows a statement yields to the caller.
type FetchMode int

const (
	// FetchNone discards any result; used for pure side-effect statements.
	FetchNone FetchMode = iota
	// FetchOne reads at most one row.
	FetchOne
	// FetchMany reads the full result set.
	FetchMany
)

func (m FetchMode) String() string {
	switch m {
	case FetchNone:
		return "none"
	case FetchOne:
		return "one"
	case FetchMany:
		return "many"
	default:
		return fmt.Sprintf("fetchmode(%d)", int(m))
	}
}

// Template is a named, immutable SQL statement. Templates are constructed
// once at package init and treated as read-only thereafter; the pipeline
// never inspects or rewrites the SQL text.
type Template struct {
	name string
	sql  string
}

// NewTemplate builds a template. The name identifies the statement in logs
// and errors; the SQL uses positional ($1, $2, ...) placeholders supplied by
// the caller.
func NewTemplate(name, sql string) (Template, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Template{}, fmt.Errorf("statement template requires a name")
	}
	if strings.TrimSpace(sql) == "" {
		return Template{}, fmt.Errorf("statement template %q requires SQL text", name)
	}
	return Template{name: name, sql: sql}, nil
}

// MustTemplate is NewTemplate that panics on error, for package-level
// template declarations.
func MustTemplate(name, sql string) Template {
	t, err := NewTemplate(name, sql)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the template's identifier.
func (t Template) Name() string { return t.name }

// SQL returns the statement text.
func (t Template) SQL() string { return t.sql }

// Statement pairs a template with bound parameters and a fetch mode. A
// statement carries either a single parameter list or, for batch execution,
// a list of parameter lists run one after another in the same slot.
type Statement struct {
	tmpl    Template
	mode    FetchMode
	args    []any
	batch   [][]any
	isBatch bool
	guard   bool
}

// Exec binds parameters for a statement whose result is discarded.
func (t Template) Exec(args ...any) Statement {
	return Statement{tmpl: t, mode: FetchNone, args: args}
}

// QueryRow binds parameters for a statement that yields at most one row.
func (t Template) QueryRow(args ...any) Statement {
	return Statement{tmpl: t, mode: FetchOne, args: args}
}

// Query binds parameters for a statement that yields all rows.
func (t Template) Query(args ...any) Statement {
	return Statement{tmpl: t, mode: FetchMany, args: args}
}

// ExecBatch binds a list of parameter lists, executed in order with results
// discarded.
func (t Template) ExecBatch(batch [][]any) Statement {
	return Statement{tmpl: t, mode: FetchNone, batch: batch, isBatch: true}
}

// QueryBatch binds a list of parameter lists; each execution's rows are
// concatenated in input order.
func (t Template) QueryBatch(batch [][]any) Statement {
	return Statement{tmpl: t, mode: FetchMany, batch: batch, isBatch: true}
}

// QueryRowBatch binds a list of parameter lists where every execution must
// yield exactly one row; a zero-row execution aborts the plan.
func (t Template) QueryRowBatch(batch [][]any) Statement {
	return Statement{tmpl: t, mode: FetchOne, batch: batch, isBatch: true}
}

// Require marks a single-row statement as a guard: the plan aborts with a
// no-data error when the statement yields no row, or yields a single boolean
// column that is false. Later statements do not execute.
func (s Statement) Require() Statement {
	s.guard = true
	return s
}

// Mode returns the statement's fetch mode.
func (s Statement) Mode() FetchMode { return s.mode }

// Name returns the underlying template name.
func (s Statement) Name() string { return s.tmpl.name }

// IsBatch reports whether the statement executes once per parameter list.
func (s Statement) IsBatch() bool { return s.isBatch }

// Plan is an ordered sequence of statements executed atomically inside one
// transaction, plus the index of the statement whose result is returned to
// the caller. All statements run even when only one result is consumed.
type Plan struct {
	stmts  []Statement
	result int
}

// NewPlan validates and assembles a plan. The authoritative result defaults
// to the last statement whose fetch mode is not FetchNone; use ResultAt to
// override. A plan consisting only of FetchNone statements is rejected
// because it yields nothing to materialize.
func NewPlan(stmts ...Statement) (Plan, error) {
	if len(stmts) == 0 {
		return Plan{}, fmt.Errorf("plan requires at least one statement")
	}
	result := -1
	for i, s := range stmts {
		if s.tmpl.name == "" {
			return Plan{}, fmt.Errorf("plan statement %d has no template", i)
		}
		if s.guard && (s.mode != FetchOne || s.isBatch) {
			return Plan{}, fmt.Errorf("statement %q: only single-row statements may be required", s.tmpl.name)
		}
		if s.isBatch && len(s.batch) == 0 {
			return Plan{}, fmt.Errorf("statement %q: batch requires at least one parameter list", s.tmpl.name)
		}
		if s.mode != FetchNone {
			result = i
		}
	}
	if result < 0 {
		return Plan{}, fmt.Errorf("plan has no fetching statement to return")
	}
	return Plan{stmts: stmts, result: result}, nil
}

// ResultAt returns a copy of the plan with statement i marked authoritative.
// The statement must exist and must fetch rows.
func (p Plan) ResultAt(i int) (Plan, error) {
	if i < 0 || i >= len(p.stmts) {
		return Plan{}, fmt.Errorf("result index %d out of range [0,%d)", i, len(p.stmts))
	}
	if p.stmts[i].mode == FetchNone {
		return Plan{}, fmt.Errorf("statement %q yields no rows and cannot be authoritative", p.stmts[i].tmpl.name)
	}
	p.result = i
	return p, nil
}

// Statements returns the plan's statements in execution order.
func (p Plan) Statements() []Statement { return p.stmts }

// ResultIndex returns the index of the authoritative statement.
func (p Plan) ResultIndex() int { return p.result }
