package validation

import (
	"reflect"
	"strings"
)

// Validator is a component validating a field value.
// Validators don't hold state between calls: a single instance can be
// shared by several rule sets and used concurrently.
type Validator interface {
	// Validate checks the field under validation satisfies this validator's criteria.
	// If necessary, replaces the `Context.Value` with a converted value (see `IsType()`).
	Validate(*Context) bool

	// Name returns the string name of the validator.
	// This is used to generate the language entry for the
	// validation error message.
	Name() string

	// IsTypeDependent returns true if the validator is type-dependent.
	// Type-dependent validators can be used with different field types
	// and have a different validation messages depending on the type.
	// The language entry used will be "validation.rules.rulename.type"
	IsTypeDependent() bool

	// IsType returns true if the validator if a type validator.
	// A type validator checks if a field has a certain type
	// and can convert the raw value to a value fitting.
	IsType() bool

	// MessagePlaceholders returns an associative slice of placeholders and their replacement.
	// This is use to generate the validation error message. An empty slice can be returned.
	// See `lang.Language.Get()` for more details.
	MessagePlaceholders(ctx *Context) []string
}

// EmptySkipper validators implementing this interface decide whether they
// are executed on empty values. Validators not implementing it are skipped.
type EmptySkipper interface {
	SkipOnEmpty() bool
}

// CustomMessager validators implementing this interface can replace the
// "validation.rules.<name>" language line with their own message template.
// An empty template means the language line is used.
type CustomMessager interface {
	CustomMessage() string
}

// BaseValidator composable structure that implements the basic functions required to
// satisfy the `Validator` interface.
type BaseValidator struct{}

// IsTypeDependent returns false.
func (v *BaseValidator) IsTypeDependent() bool { return false }

// IsType returns false.
func (v *BaseValidator) IsType() bool { return false }

// MessagePlaceholders returns an empty slice (no placeholders)
func (v *BaseValidator) MessagePlaceholders(_ *Context) []string { return []string{} }

// List of validators which will be applied on the field. The validators are executed in the
// order of the slice.
type List []Validator

// RuleSet associates field names with the validators applied to them.
type RuleSet map[string]List

// FieldType returned by the GetFieldType function.
const (
	FieldTypeNumeric     = "numeric"
	FieldTypeString      = "string"
	FieldTypeBool        = "bool"
	FieldTypeArray       = "array"
	FieldTypeObject      = "object"
	FieldTypeUnsupported = "unsupported"
)

// GetFieldType returns the non-technical type of the given "value" interface.
// This is used by validation rules to know if the input data is a candidate
// for validation or not and is especially useful for type-dependent rules.
//   - "numeric" if the value is an int, uint or a float
//   - "string" if the value is a string
//   - "array" if the value is a slice
//   - "object" if the value is a `map[string]any`
//   - "bool" if the value is a bool
//   - "unsupported" otherwise
func GetFieldType(value any) string {
	rv := reflect.ValueOf(value)
	kind := rv.Kind().String()
	switch {
	case strings.HasPrefix(kind, "int"), strings.HasPrefix(kind, "uint") && kind != "uintptr", strings.HasPrefix(kind, "float"):
		return FieldTypeNumeric
	case kind == "string":
		return FieldTypeString
	case kind == "bool":
		return FieldTypeBool
	case kind == "slice":
		return FieldTypeArray
	default:
		if rv.IsValid() {
			if _, ok := value.(map[string]any); ok {
				return FieldTypeObject
			}
		}
		return FieldTypeUnsupported
	}
}
