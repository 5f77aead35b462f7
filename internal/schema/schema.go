// Package schema declares the shapes of records exchanged with the inference
// service and validates them, coercing the mis-shapes language models commonly
// produce instead of rejecting the whole record.
package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the declared type of a field.
type Kind int

const (
	KindString Kind = iota
	KindStringList
	KindEnum
	KindInteger
	KindNumber
	KindBool
	KindObjectList
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindStringList:
		return "string list"
	case KindEnum:
		return "enum"
	case KindInteger:
		return "integer"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindObjectList:
		return "object list"
	default:
		return "unknown"
	}
}

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("record does not match schema")

// Range bounds a numeric field.
type Range struct {
	Min float64
	Max float64
}

// Field declares one key of a record.
type Field struct {
	Name        string
	Kind        Kind
	Description string
	// Nullable fields accept null and fall back to null when a value cannot be coerced.
	Nullable bool
	// Optional fields may be absent from the record.
	Optional bool
	Enum     []string
	// Normalize maps free text onto Enum before matching, returning "" when ambiguous.
	Normalize func(string) string
	Range     *Range
	MaxLength int
	MaxItems  int
	// Fields is the element shape of a KindObjectList field.
	Fields []Field
}

// Schema is a named set of fields.
type Schema struct {
	Name        string
	Description string
	Fields      []Field
	// Strict schemas report coercion failures instead of nulling the value.
	Strict bool
}

// Record is a validated, coerced record keyed by field name.
type Record map[string]any

// FieldError describes why one field failed validation.
type FieldError struct {
	Schema string
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s.%s: %s", e.Schema, e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error { return ErrInvalid }

// Validate checks in against the schema and returns a coerced copy holding
// only declared fields. Unknown keys are dropped.
func (s *Schema) Validate(in map[string]any) (Record, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: schema is nil", ErrInvalid)
	}

	out := make(Record, len(s.Fields))
	for _, field := range s.Fields {
		raw, present := lookup(in, field.Name)
		if !present {
			switch {
			case field.Optional:
				continue
			case field.Nullable:
				out[field.Name] = nil
				continue
			default:
				return nil, s.fieldErr(field, "is required")
			}
		}

		value, err := s.coerceField(field, raw)
		if err != nil {
			return nil, err
		}
		out[field.Name] = value
	}

	return out, nil
}

// Field returns the declared field with the given name.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (s *Schema) coerceField(field Field, raw any) (any, error) {
	if isNull(raw) {
		if field.Nullable {
			return nil, nil
		}
		return nil, s.fieldErr(field, "must not be null")
	}

	value, reason := coerce(field, raw, s.Strict)
	if reason == "" {
		return value, nil
	}

	if field.Nullable && !s.Strict {
		return nil, nil
	}

	return nil, s.fieldErr(field, reason)
}

func (s *Schema) fieldErr(field Field, reason string) error {
	return &FieldError{Schema: s.Name, Field: field.Name, Reason: reason}
}

// lookup finds key in m, tolerating case and camelCase/snake_case differences.
func lookup(m map[string]any, key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	if v, ok := m[key]; ok {
		return v, true
	}
	want := canonicalKey(key)
	for k, v := range m {
		if canonicalKey(k) == want {
			return v, true
		}
	}
	return nil, false
}

func canonicalKey(k string) string {
	k = strings.ToLower(strings.TrimSpace(k))
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(k)
}
