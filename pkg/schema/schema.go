package schema

import (
	"errors"
	"fmt"
)

// ErrMalformedSchema is returned when a schema cannot be constructed.
// This is a handler-authoring bug, not a runtime condition.
var ErrMalformedSchema = errors.New("malformed schema")

// Field is one entry in a schema. Fields are value types; the With*
// builders return modified copies so shared schemas stay immutable.
type Field struct {
	FieldName   string
	FieldType   Type
	IsRequired  bool
	DefaultVal  any
	Constraints map[string]any
	IsSecret    bool
}

// Required declares a mandatory field.
func Required(name string, t Type) Field {
	return Field{FieldName: name, FieldType: t, IsRequired: true}
}

// Optional declares a field that may be omitted from input.
func Optional(name string, t Type) Field {
	return Field{FieldName: name, FieldType: t}
}

// Default sets the value used when an optional field is omitted.
func (f Field) Default(v any) Field {
	f.DefaultVal = v
	return f
}

// Constrain attaches an advisory constraint (min, max, pattern...) that is
// passed through to the frontend. Constraints are not enforced here.
func (f Field) Constrain(key string, v any) Field {
	cp := make(map[string]any, len(f.Constraints)+1)
	for k, val := range f.Constraints {
		cp[k] = val
	}
	cp[key] = v
	f.Constraints = cp
	return f
}

// Secret marks the field as sensitive so frontends mask its input.
func (f Field) Secret() Field {
	f.IsSecret = true
	return f
}

// Schema is an ordered list of fields. Order is significant and preserved
// through encoding.
type Schema struct {
	fields []Field
}

// New builds a schema, rejecting empty names, nil types, and duplicates.
func New(fields ...Field) (*Schema, error) {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f.FieldName == "" {
			return nil, fmt.Errorf("%w: empty field name", ErrMalformedSchema)
		}
		if f.FieldType == nil {
			return nil, fmt.Errorf("%w: field %q has nil type", ErrMalformedSchema, f.FieldName)
		}
		if _, dup := seen[f.FieldName]; dup {
			return nil, fmt.Errorf("%w: duplicate field %q", ErrMalformedSchema, f.FieldName)
		}
		seen[f.FieldName] = struct{}{}
	}
	return &Schema{fields: fields}, nil
}

// MustNew is New for statically known schemas; it panics on authoring bugs.
func MustNew(fields ...Field) *Schema {
	s, err := New(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Fields returns the fields in declaration order.
func (s *Schema) Fields() []Field {
	if s == nil {
		return nil
	}
	return s.fields
}

// Validate checks submitted input against the schema. It returns a map of
// field name to failure reason, or nil when the input is acceptable —
// exactly the shape a form result re-renders with.
func (s *Schema) Validate(input map[string]any) map[string]string {
	if s == nil || len(s.fields) == 0 {
		return nil
	}

	errs := make(map[string]string)
	for _, f := range s.fields {
		value, ok := input[f.FieldName]
		if !ok {
			if f.IsRequired && f.DefaultVal == nil {
				errs[f.FieldName] = "required"
			}
			continue
		}
		if err := f.FieldType.Validate(value); err != nil {
			errs[f.FieldName] = err.Error()
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Apply returns a copy of input with defaults filled in for omitted
// fields. The input map is not modified.
func (s *Schema) Apply(input map[string]any) map[string]any {
	out := make(map[string]any, len(input))
	for k, v := range input {
		out[k] = v
	}
	if s == nil {
		return out
	}
	for _, f := range s.fields {
		if _, ok := out[f.FieldName]; !ok && f.DefaultVal != nil {
			out[f.FieldName] = f.DefaultVal
		}
	}
	return out
}
