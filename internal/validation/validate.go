package validation

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Validate checks input against the schema.
//
// On success it returns the normalized values (coerced types, trimmed
// strings, defaults applied) and a nil error slice. On failure it returns
// a nil map and every collected FieldError, ordered by field declaration.
//
// Validate is a pure function of its inputs: no I/O, no mutation of the
// schema or the input map, identical output for identical input.
func (s *Schema) Validate(input map[string]any) (map[string]any, []FieldError) {
	out := make(map[string]any, len(s.fields))
	var errs []FieldError

	for _, f := range s.fields {
		raw, present := input[f.Name]
		if present && isEmpty(raw) {
			present = false
		}

		if !present {
			if f.Required {
				errs = append(errs, FieldError{
					Field:   f.Name,
					Code:    CodeRequired,
					Message: fmt.Sprintf("%s is required", f.Name),
				})
				continue
			}
			if f.Default != nil {
				out[f.Name] = f.Default
			}
			continue
		}

		val, fieldErrs := checkField(f, raw)
		if len(fieldErrs) > 0 {
			errs = append(errs, fieldErrs...)
			continue
		}
		out[f.Name] = val
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}

// checkField coerces raw to the declared type and then collects every
// bound/pattern/enum violation for it. A coercion failure short-circuits
// the remaining rules for that field because there is no typed value to
// check them against.
func checkField(f Field, raw any) (any, []FieldError) {
	switch f.Type {
	case String:
		sv, ok := raw.(string)
		if !ok {
			return nil, []FieldError{typeErr(f, "a string")}
		}
		return checkString(f, strings.TrimSpace(sv))
	case Int:
		n, ok := coerceInt(raw)
		if !ok {
			return nil, []FieldError{typeErr(f, "an integer")}
		}
		return checkNumber(f, float64(n), int64(n))
	case Float:
		fv, ok := coerceFloat(raw)
		if !ok {
			return nil, []FieldError{typeErr(f, "a number")}
		}
		return checkNumber(f, fv, fv)
	case Bool:
		bv, ok := coerceBool(raw)
		if !ok {
			return nil, []FieldError{typeErr(f, "a boolean")}
		}
		return bv, nil
	default:
		// Unknown declared type is a programming error in the schema;
		// surface it as a type violation rather than panicking.
		return nil, []FieldError{typeErr(f, string(f.Type))}
	}
}

func checkString(f Field, v string) (any, []FieldError) {
	var errs []FieldError
	n := utf8.RuneCountInString(v)
	if f.MinLen > 0 && n < f.MinLen {
		errs = append(errs, FieldError{
			Field:   f.Name,
			Code:    CodeTooShort,
			Message: fmt.Sprintf("%s must be at least %d characters", f.Name, f.MinLen),
		})
	}
	if f.MaxLen > 0 && n > f.MaxLen {
		errs = append(errs, FieldError{
			Field:   f.Name,
			Code:    CodeTooLong,
			Message: fmt.Sprintf("%s must be at most %d characters", f.Name, f.MaxLen),
		})
	}
	if f.Pattern != nil && !f.Pattern.MatchString(v) {
		errs = append(errs, FieldError{
			Field:   f.Name,
			Code:    CodePattern,
			Message: fmt.Sprintf("%s has an invalid format", f.Name),
		})
	}
	if len(f.Enum) > 0 && !inEnum(f.Enum, v) {
		errs = append(errs, FieldError{
			Field:   f.Name,
			Code:    CodeInvalidEnum,
			Message: fmt.Sprintf("%s must be one of: %s", f.Name, strings.Join(f.Enum, ", ")),
		})
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return v, nil
}

// checkNumber validates bounds against fv and returns typed (the int64 or
// float64 the caller will store) so Int fields normalize to int64 and
// Float fields to float64.
func checkNumber(f Field, fv float64, typed any) (any, []FieldError) {
	var errs []FieldError
	if f.Min != nil && fv < *f.Min {
		errs = append(errs, FieldError{
			Field:   f.Name,
			Code:    CodeTooSmall,
			Message: fmt.Sprintf("%s must be at least %s", f.Name, trimFloat(*f.Min)),
		})
	}
	if f.Max != nil && fv > *f.Max {
		errs = append(errs, FieldError{
			Field:   f.Name,
			Code:    CodeTooBig,
			Message: fmt.Sprintf("%s must be at most %s", f.Name, trimFloat(*f.Max)),
		})
	}
	if len(f.Enum) > 0 && !inEnum(f.Enum, trimFloat(fv)) {
		errs = append(errs, FieldError{
			Field:   f.Name,
			Code:    CodeInvalidEnum,
			Message: fmt.Sprintf("%s must be one of: %s", f.Name, strings.Join(f.Enum, ", ")),
		})
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return typed, nil
}

func typeErr(f Field, want string) FieldError {
	return FieldError{
		Field:   f.Name,
		Code:    CodeInvalidType,
		Message: fmt.Sprintf("%s must be %s", f.Name, want),
	}
}

// isEmpty reports whether a present value should count as absent for the
// required check: nil, or a string that is empty after trimming.
func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// coerceInt accepts native ints, JSON numbers (float64 without a
// fractional part), and numeric strings from query parameters.
func coerceInt(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int64:
		return t, true
	case uint:
		return int64(t), true
	case float64:
		if t != float64(int64(t)) {
			return 0, false
		}
		return int64(t), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func coerceFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func coerceBool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "1", "true", "yes", "on":
			return true, true
		case "0", "false", "no", "off":
			return false, true
		}
	}
	return false, false
}

func inEnum(enum []string, v string) bool {
	for _, e := range enum {
		if e == v {
			return true
		}
	}
	return false
}

// trimFloat renders a float without a trailing ".0" for whole numbers,
// keeping messages like "page must be at least 1" readable.
func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
