package validation

// Errors structure representing the validation errors of each field.
// The key is the name of the field.
type Errors map[string]*FieldErrors

// FieldErrors structure representing the errors associated with a field.
type FieldErrors struct {
	Errors []string `json:"errors,omitempty"`
}

// Add an error message to the given field.
func (e Errors) Add(field, message string) {
	errs, ok := e[field]
	if !ok {
		errs = &FieldErrors{}
		e[field] = errs
	}
	errs.Errors = append(errs.Errors, message)
}
