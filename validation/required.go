package validation

// RequiredValidator the field under validation must be present and not empty.
type RequiredValidator struct{ BaseValidator }

// Validate checks the field under validation satisfies this validator's criteria.
func (v *RequiredValidator) Validate(ctx *Context) bool {
	return !isEmpty(ctx.Value)
}

// Name returns the string name of the validator.
func (v *RequiredValidator) Name() string { return "required" }

// Required the field under validation must be present and not empty.
// An empty string, an empty slice or an empty object are considered absent.
func Required() *RequiredValidator {
	return &RequiredValidator{}
}
