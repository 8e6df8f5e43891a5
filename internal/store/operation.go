package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/codehornets/julep/internal/metrics"
)

// Operation is a registered domain operation: a name for observability, the
// target record shape, the declarative row transform, and the error mapping
// consulted on failure. Operations are declared once at package init;
// registration panics when the field map names fields the shape does not
// declare, so a mismatch never reaches request time.
//
// Running an operation is the pipeline chain in a fixed order: execute the
// plan with error translation, materialize the authoritative rows, then
// record the invocation counter.
type Operation[T any] struct {
	name   string
	shape  Shape
	fields FieldMap
	errors ErrorMapping
}

// NewOperation registers an operation.
func NewOperation[T any](name string, shape Shape, fields FieldMap, mapping ErrorMapping) Operation[T] {
	if err := fields.CheckAgainst(shape); err != nil {
		panic(fmt.Sprintf("operation %s: %v", name, err))
	}
	return Operation[T]{name: name, shape: shape, fields: fields, errors: mapping}
}

// Name returns the operation's registered name.
func (op Operation[T]) Name() string { return op.name }

// One executes the plan and materializes exactly one record. Zero rows is a
// not-found condition: it translates through the operation's no-data mapping
// when one is declared, and otherwise surfaces as a generic 404 for the
// shape. More than one row is an invariant violation, never silently
// truncated.
func (op Operation[T]) One(ctx context.Context, ex *Executor, p Plan) (T, error) {
	var zero T

	rows, err := ex.Execute(ctx, p)
	if err != nil {
		metrics.CountFailure(op.name)
		return zero, op.errors.Translate(err)
	}

	switch len(rows) {
	case 1:
	case 0:
		metrics.CountFailure(op.name)
		err := op.errors.Translate(fmt.Errorf("%s: %w", op.name, sql.ErrNoRows))
		var de *DomainError
		if !errors.As(err, &de) {
			err = &DomainError{
				Status:  http.StatusNotFound,
				Message: fmt.Sprintf("%s not found", op.shape.Name),
				cause:   sql.ErrNoRows,
			}
		}
		return zero, err
	default:
		metrics.CountFailure(op.name)
		return zero, &DomainError{
			Status:  http.StatusInternalServerError,
			Message: fmt.Sprintf("%s: expected exactly one row, got %d", op.name, len(rows)),
		}
	}

	record, err := decodeRow[T](op.fields.Apply(rows[0]), op.shape)
	if err != nil {
		metrics.CountFailure(op.name)
		return zero, err
	}

	metrics.CountOperation(op.name)
	return record, nil
}

// All executes the plan and materializes every row in order. An empty result
// set yields an empty, non-nil slice.
func (op Operation[T]) All(ctx context.Context, ex *Executor, p Plan) ([]T, error) {
	rows, err := ex.Execute(ctx, p)
	if err != nil {
		metrics.CountFailure(op.name)
		return nil, op.errors.Translate(err)
	}

	out := make([]T, 0, len(rows))
	for _, row := range rows {
		record, err := decodeRow[T](op.fields.Apply(row), op.shape)
		if err != nil {
			metrics.CountFailure(op.name)
			return nil, err
		}
		out = append(out, record)
	}

	metrics.CountOperation(op.name)
	return out, nil
}
