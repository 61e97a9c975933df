// Package validation implements declarative input validation for network
// boundaries (JSON bodies and query strings already split into key/value
// pairs).
//
// A Schema is an ordered list of field declarations built once at startup
// and never mutated. Validate checks an untyped map against the schema and
// returns either the normalized values or the full list of field-level
// violations, in field-declaration order. Validation never stops at the
// first problem: one request reports every invalid field at once so a UI
// can highlight all of them simultaneously.
//
// Policy notes:
//   - String values are trimmed before length checks.
//   - Numeric strings are coerced to numbers (query parameters arrive as
//     strings).
//   - Unknown input fields are dropped silently; only declared fields make
//     it into the normalized result. This one policy applies to bodies and
//     query strings alike.
package validation

import (
	"net/url"
	"regexp"
)

// Type enumerates the primitive types a field can declare.
type Type string

const (
	String Type = "string"
	Int    Type = "int"
	Float  Type = "float"
	Bool   Type = "bool"
)

// Violation codes, stable and machine-readable.
const (
	CodeRequired    = "required"
	CodeInvalidType = "invalid_type"
	CodeTooShort    = "too_short"
	CodeTooLong     = "too_long"
	CodeTooSmall    = "too_small"
	CodeTooBig      = "too_big"
	CodePattern     = "pattern"
	CodeInvalidEnum = "invalid_enum"
)

// FieldError describes one violation on one field. Errors are value
// types, produced in field-declaration order, deterministic for a given
// input.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Field declares validation rules for a single input key.
//
// Zero values disable a rule: MinLen/MaxLen of 0 mean "no length bound",
// nil Min/Max mean "no numeric bound", nil Pattern and empty Enum mean
// "no membership check". Default is applied when the field is absent and
// not required.
type Field struct {
	Name     string
	Type     Type
	Required bool
	Default  any

	// String rules (lengths are measured after trimming, in runes).
	MinLen  int
	MaxLen  int
	Pattern *regexp.Regexp

	// Numeric rules (inclusive bounds).
	Min *float64
	Max *float64

	// Enum restricts the (stringified) value to a closed set. Intended
	// for sort columns, order directions, and similar identifiers that
	// must never reach query assembly unchecked.
	Enum []string
}

// Schema is an immutable, ordered set of field declarations.
// Construct once with New at startup; safe for concurrent use.
type Schema struct {
	fields []Field
}

// New builds a Schema from the given field declarations. Order matters:
// violations are reported in declaration order.
func New(fields ...Field) *Schema {
	cp := make([]Field, len(fields))
	copy(cp, fields)
	return &Schema{fields: cp}
}

// Fields returns the declared field names in order. Used by callers that
// need to echo the accepted shape (e.g. API docs).
func (s *Schema) Fields() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Name
	}
	return out
}

// MinOf and MaxOf are small helpers for declaring numeric bounds inline.
func MinOf(v float64) *float64 { return &v }

// MaxOf returns a pointer to v for use as an inclusive upper bound.
func MaxOf(v float64) *float64 { return &v }

// FromValues flattens url.Values into the untyped map shape Validate
// expects, keeping the first value for repeated keys. Keys with empty
// values are kept so "required and empty" is reported as required.
func FromValues(q url.Values) map[string]any {
	m := make(map[string]any, len(q))
	for k, vs := range q {
		if len(vs) > 0 {
			m[k] = vs[0]
		}
	}
	return m
}
