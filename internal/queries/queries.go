// Package queries holds helpers shared by the per-resource domain
// operation packages.
package queries

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/codehornets/julep/internal/store"
)

// JSONParam marshals a metadata-style map for a jsonb parameter. A nil map
// becomes an empty object so NOT NULL jsonb columns always receive a value.
func JSONParam(v map[string]any) (string, error) {
	if v == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal json parameter: %w", err)
	}
	return string(raw), nil
}

// NullableJSON marshals a map for a jsonb parameter where nil means SQL
// NULL, used by patch queries that treat NULL as "field not provided".
func NullableJSON(v map[string]any) (any, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal json parameter: %w", err)
	}
	return string(raw), nil
}

// MarshalValue marshals an arbitrary value for a jsonb parameter, defaulting
// nil to an empty object.
func MarshalValue(v any) (string, error) {
	if v == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal json parameter: %w", err)
	}
	return string(raw), nil
}

// SortFields are the column names list operations may sort by.
var SortFields = []string{"created_at", "updated_at"}

// ValidateSort checks a list operation's sort column and direction before
// any query executes.
func ValidateSort(sortBy, direction string) error {
	ok := false
	for _, f := range SortFields {
		if sortBy == f {
			ok = true
			break
		}
	}
	if !ok {
		return store.Invalid("invalid sort field: %s", sortBy)
	}
	switch strings.ToLower(direction) {
	case "asc", "desc":
		return nil
	default:
		return store.Invalid("invalid sort direction: %s", direction)
	}
}

// ValidatePage checks pagination bounds before any query executes.
func ValidatePage(limit, offset int) error {
	if limit <= 0 || limit > 1000 {
		return store.Invalid("limit must be between 1 and 1000")
	}
	if offset < 0 {
		return store.Invalid("offset must not be negative")
	}
	return nil
}
