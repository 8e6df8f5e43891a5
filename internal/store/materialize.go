package store

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/google/uuid"
)

// FieldKind is a loose value-kind check applied during shape validation.
// Kinds are deliberately permissive about driver representations: drivers
// hand back int64 for integers, []byte for jsonb, and so on.
type FieldKind int

const (
	KindAny FieldKind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindTime
	KindUUID
	KindJSON
)

func (k FieldKind) matches(v any) bool {
	if v == nil {
		return true
	}
	switch k {
	case KindAny:
		return true
	case KindString:
		switch v.(type) {
		case string, []byte:
			return true
		}
	case KindInt:
		switch v.(type) {
		case int, int32, int64, uint32, uint64:
			return true
		}
	case KindFloat:
		switch v.(type) {
		case float32, float64, int, int64:
			return true
		}
	case KindBool:
		switch v.(type) {
		case bool:
			return true
		}
	case KindTime:
		switch v.(type) {
		case time.Time, string:
			return true
		}
	case KindUUID:
		switch t := v.(type) {
		case uuid.UUID, [16]byte:
			return true
		case string:
			_, err := uuid.Parse(t)
			return err == nil
		case []byte:
			_, err := uuid.ParseBytes(t)
			return err == nil
		}
	case KindJSON:
		switch v.(type) {
		case []byte, string, json.RawMessage, map[string]any, []any:
			return true
		}
	}
	return false
}

// FieldSpec declares one field of a target record shape.
type FieldSpec struct {
	Name     string
	Kind     FieldKind
	Required bool
}

// Shape is the field set a transformed row must satisfy before it is
// decoded into a typed record. Columns not named by the shape are ignored.
type Shape struct {
	Name   string
	Fields []FieldSpec
}

func (s Shape) field(name string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// validate checks a transformed row against the shape.
func (s Shape) validate(r Row) error {
	for _, f := range s.Fields {
		v, ok := r.Value(f.Name)
		if !ok || v == nil {
			if f.Required {
				return &MaterializationError{Shape: s.Name, Field: f.Name, Reason: "is missing"}
			}
			continue
		}
		if !f.Kind.matches(v) {
			return &MaterializationError{
				Shape:  s.Name,
				Field:  f.Name,
				Reason: fmt.Sprintf("has unexpected type %T", v),
			}
		}
	}
	return nil
}

// FieldMap is a declarative row transform: source-column renames plus
// derived target fields computed from the raw row. It replaces ad hoc
// rename closures so the mapping can be checked against the target shape
// when the operation is registered, not at request time.
type FieldMap struct {
	// Renames maps source column name to target field name.
	Renames map[string]string
	// Derived computes a target field from the untransformed row.
	Derived map[string]func(Row) any
	// Drop removes columns after renames and derivations run.
	Drop []string
}

// Apply produces the transformed row. The input row is not mutated.
func (m FieldMap) Apply(r Row) Row {
	out := r
	for from, to := range m.Renames {
		out = out.Rename(from, to)
	}
	for field, derive := range m.Derived {
		out = out.With(field, derive(r))
	}
	for _, col := range m.Drop {
		out = out.Without(col)
	}
	return out
}

// CheckAgainst verifies at registration time that every rename and
// derivation targets a field the shape declares.
func (m FieldMap) CheckAgainst(s Shape) error {
	for from, to := range m.Renames {
		if _, ok := s.field(to); !ok {
			return fmt.Errorf("field map for %s: rename %s -> %s targets undeclared field", s.Name, from, to)
		}
	}
	for field := range m.Derived {
		if _, ok := s.field(field); !ok {
			return fmt.Errorf("field map for %s: derived field %s is undeclared", s.Name, field)
		}
	}
	return nil
}

// decodeRow validates a transformed row against the shape and decodes it
// into the target record type. Decoding matches struct fields through their
// json tags, with hooks for time.Time, uuid.UUID, and json.RawMessage.
func decodeRow[T any](r Row, shape Shape) (T, error) {
	var out T
	if err := shape.validate(r); err != nil {
		return out, err
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &out,
		TagName: "json",
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
			uuidDecodeHook,
			rawJSONDecodeHook,
			textArrayDecodeHook,
			byteStringDecodeHook,
		),
	})
	if err != nil {
		return out, fmt.Errorf("build decoder for %s: %w", shape.Name, err)
	}
	if err := dec.Decode(r.toMap()); err != nil {
		return out, &MaterializationError{Shape: shape.Name, Field: "", Reason: err.Error()}
	}
	return out, nil
}

var (
	uuidType    = reflect.TypeOf(uuid.UUID{})
	rawJSONType = reflect.TypeOf(json.RawMessage{})
)

func uuidDecodeHook(from, to reflect.Type, data any) (any, error) {
	if to != uuidType || from == uuidType {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return uuid.Parse(v)
	case []byte:
		return uuid.ParseBytes(v)
	case [16]byte:
		return uuid.UUID(v), nil
	default:
		return data, nil
	}
}

func rawJSONDecodeHook(from, to reflect.Type, data any) (any, error) {
	if to != rawJSONType || from == rawJSONType {
		return data, nil
	}
	switch v := data.(type) {
	case []byte:
		return json.RawMessage(v), nil
	case string:
		return json.RawMessage(v), nil
	case map[string]any, []any:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return json.RawMessage(raw), nil
	default:
		return data, nil
	}
}

// textArrayDecodeHook parses the wire form of a text[] column ("{a,b}")
// into a string slice. Quoted elements may contain escaped quotes and
// backslashes.
func textArrayDecodeHook(from, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.Slice || to.Elem().Kind() != reflect.String {
		return data, nil
	}

	var literal string
	switch v := data.(type) {
	case string:
		literal = v
	case []byte:
		literal = string(v)
	default:
		return data, nil
	}
	if len(literal) < 2 || literal[0] != '{' || literal[len(literal)-1] != '}' {
		return data, nil
	}

	return parseTextArray(literal), nil
}

func parseTextArray(literal string) []string {
	body := literal[1 : len(literal)-1]
	if body == "" {
		return []string{}
	}

	var (
		out      []string
		cur      []byte
		inQuotes bool
	)
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case c == '\\' && inQuotes && i+1 < len(body):
			i++
			cur = append(cur, body[i])
		case c == '"':
			inQuotes = !inQuotes
		case c == ',' && !inQuotes:
			out = append(out, string(cur))
			cur = cur[:0]
		default:
			cur = append(cur, c)
		}
	}
	out = append(out, string(cur))
	return out
}

// byteStringDecodeHook lets []byte column values (text columns surfaced as
// bytes by some drivers) decode into plain string fields.
func byteStringDecodeHook(from, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.String || to == rawJSONType {
		return data, nil
	}
	if b, ok := data.([]byte); ok {
		return string(b), nil
	}
	return data, nil
}
