package store

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Class identifies the small closed taxonomy of store failures the pipeline
// can translate. Anything else is ClassUnknown and propagates unmodified.
type Class int

const (
	ClassUnknown Class = iota
	ClassForeignKeyViolation
	ClassUniqueViolation
	ClassCheckViolation
	ClassNotNullViolation
	ClassDataError
	ClassNoData
)

func (c Class) String() string {
	switch c {
	case ClassForeignKeyViolation:
		return "foreign_key_violation"
	case ClassUniqueViolation:
		return "unique_violation"
	case ClassCheckViolation:
		return "check_violation"
	case ClassNotNullViolation:
		return "not_null_violation"
	case ClassDataError:
		return "data_error"
	case ClassNoData:
		return "no_data_found"
	default:
		return "unknown"
	}
}

// PostgreSQL SQLSTATE codes for the constraint classes the pipeline handles.
const (
	sqlstateNotNullViolation    = "23502"
	sqlstateForeignKeyViolation = "23503"
	sqlstateUniqueViolation     = "23505"
	sqlstateCheckViolation      = "23514"
	sqlstateNoDataFound         = "P0002"
)

// Classify maps a store error onto the pipeline's error taxonomy. Zero-row
// results surface as sql.ErrNoRows regardless of driver, so they classify
// without a PgError.
func Classify(err error) Class {
	if err == nil {
		return ClassUnknown
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ClassNoData
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return ClassUnknown
	}

	switch pgErr.Code {
	case sqlstateForeignKeyViolation:
		return ClassForeignKeyViolation
	case sqlstateUniqueViolation:
		return ClassUniqueViolation
	case sqlstateCheckViolation:
		return ClassCheckViolation
	case sqlstateNotNullViolation:
		return ClassNotNullViolation
	case sqlstateNoDataFound:
		return ClassNoData
	}
	// Class 22 covers data exceptions: malformed values, range overflow,
	// invalid text representation.
	if strings.HasPrefix(pgErr.Code, "22") {
		return ClassDataError
	}
	return ClassUnknown
}

// DomainError is a caller-facing error carrying a stable status code and a
// human-readable message. It wraps the underlying store error when there is
// one.
type DomainError struct {
	Status  int
	Message string
	cause   error
}

func (e *DomainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s (status %d): %v", e.Message, e.Status, e.cause)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

func (e *DomainError) Unwrap() error { return e.cause }

// Invalid builds a client-fault domain error for input that fails a
// precondition, raised before any store access.
func Invalid(format string, args ...any) error {
	return &DomainError{Status: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

// ErrorSpec is the (status, message) pair an operation declares for one
// error class.
type ErrorSpec struct {
	Status  int
	Message string
}

// ErrorMapping translates store error classes into domain errors. The
// mapping is declared once per operation and consulted only on failure.
type ErrorMapping map[Class]ErrorSpec

// Translate converts err into the mapped domain error when its class is
// present in the mapping. Domain errors pass through untouched so nested
// layers never double-wrap, and unmapped classes re-raise the original
// error unchanged.
func (m ErrorMapping) Translate(err error) error {
	if err == nil {
		return nil
	}
	var de *DomainError
	if errors.As(err, &de) {
		return err
	}
	if spec, ok := m[Classify(err)]; ok {
		return &DomainError{Status: spec.Status, Message: spec.Message, cause: err}
	}
	return err
}

// MaterializationError reports a transformed row that does not satisfy the
// target shape. It always indicates a contract bug between a domain
// operation and its query, never a client fault.
type MaterializationError struct {
	Shape  string
	Field  string
	Reason string
}

func (e *MaterializationError) Error() string {
	return fmt.Sprintf("materialize %s: field %q %s", e.Shape, e.Field, e.Reason)
}
