package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/codehornets/julep/internal/logger"
)

// Executor runs query plans against a pooled database handle. Each call to
// Execute acquires one connection from the pool, runs every statement of the
// plan in order inside a single transaction, and releases the connection on
// every exit path. The executor performs no error classification; failures
// propagate to the error-translation layer unmodified.
type Executor struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewExecutor wraps a database handle. The handle's pool limits are the only
// shared-resource policy; the executor never bypasses them.
func NewExecutor(db *sql.DB) *Executor {
	return &Executor{db: db, log: logger.Logger.With().Str("component", "executor").Logger()}
}

// Execute runs the plan atomically and returns the authoritative
// statement's rows, empty when that statement matched nothing. Any failure
// rolls the whole transaction back; no partial effect survives.
func (e *Executor) Execute(ctx context.Context, p Plan) ([]Row, error) {
	if len(p.stmts) == 0 {
		return nil, fmt.Errorf("execute: empty plan")
	}

	conn, err := e.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}

	result, err := e.runPlan(ctx, tx, p)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			e.log.Warn().Err(rbErr).Msg("rollback failed after statement error")
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return result, nil
}

func (e *Executor) runPlan(ctx context.Context, tx *sql.Tx, p Plan) ([]Row, error) {
	var result []Row
	for i, st := range p.stmts {
		rows, err := e.runStatement(ctx, tx, st)
		if err != nil {
			e.log.Debug().Str("statement", st.tmpl.name).Int("index", i).Err(err).Msg("statement failed")
			return nil, fmt.Errorf("statement %s: %w", st.tmpl.name, err)
		}
		if i == p.result {
			result = rows
		}
	}
	if result == nil {
		result = []Row{}
	}
	return result, nil
}

func (e *Executor) runStatement(ctx context.Context, tx *sql.Tx, st Statement) ([]Row, error) {
	if st.isBatch {
		var out []Row
		for i, args := range st.batch {
			rows, err := e.runOnce(ctx, tx, st, args)
			if err != nil {
				return nil, fmt.Errorf("batch item %d: %w", i, err)
			}
			if st.mode == FetchOne && len(rows) == 0 {
				return nil, fmt.Errorf("batch item %d: %w", i, sql.ErrNoRows)
			}
			out = append(out, rows...)
		}
		return out, nil
	}

	rows, err := e.runOnce(ctx, tx, st, st.args)
	if err != nil {
		return nil, err
	}
	if st.guard {
		if err := checkGuard(rows); err != nil {
			return nil, err
		}
	}
	return rows, nil
}

func (e *Executor) runOnce(ctx context.Context, tx *sql.Tx, st Statement, args []any) ([]Row, error) {
	switch st.mode {
	case FetchNone:
		if _, err := tx.ExecContext(ctx, st.tmpl.sql, args...); err != nil {
			return nil, err
		}
		return nil, nil
	case FetchOne:
		rows, err := tx.QueryContext(ctx, st.tmpl.sql, args...)
		if err != nil {
			return nil, err
		}
		return scanRows(rows, 1)
	case FetchMany:
		rows, err := tx.QueryContext(ctx, st.tmpl.sql, args...)
		if err != nil {
			return nil, err
		}
		return scanRows(rows, 0)
	default:
		return nil, fmt.Errorf("unsupported fetch mode %s", st.mode)
	}
}

// checkGuard enforces a Require()-marked statement: a row must exist, and a
// single-column boolean row must be true. Failures surface as sql.ErrNoRows
// so the translator classifies them as no-data.
func checkGuard(rows []Row) error {
	if len(rows) == 0 {
		return fmt.Errorf("required row missing: %w", sql.ErrNoRows)
	}
	r := rows[0]
	if r.Len() != 1 {
		return nil
	}
	switch v := r.Get(r.Columns()[0]).(type) {
	case bool:
		if !v {
			return fmt.Errorf("required condition not met: %w", sql.ErrNoRows)
		}
	case int64:
		// SQLite surfaces booleans as integers.
		if v == 0 {
			return fmt.Errorf("required condition not met: %w", sql.ErrNoRows)
		}
	}
	return nil
}
