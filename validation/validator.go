package validation

// FieldError is one failed check, in the order it was recorded.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator collects failed checks across fields.
type Validator struct {
	errors []FieldError
}

// New returns an empty Validator.
func New() *Validator { return &Validator{} }

// AddError records message against field.
func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, FieldError{Field: field, Message: message})
}

// HasErrors reports whether any check failed.
func (v *Validator) HasErrors() bool { return len(v.errors) > 0 }

// FieldErrors keys the failures by field, keeping the first message for a
// field that failed more than once. It returns nil when nothing failed.
func (v *Validator) FieldErrors() FieldErrors {
	if !v.HasErrors() {
		return nil
	}
	out := make(FieldErrors, len(v.errors))
	for _, e := range v.errors {
		if _, seen := out[e.Field]; !seen {
			out[e.Field] = e.Message
		}
	}
	return out
}
