// Package validation provides input validation for authkit.
//
// Three styles are supported:
//
// # Rule maps
//
// A Rule turns a raw value into an accepted value or a message. Rules are
// composed per field name and evaluated against open-ended input maps, which
// is how registration input is checked:
//
//	rules := validation.Rules{
//	    "email":    validation.Email(),
//	    "password": validation.MinLength(6),
//	    "age":      validation.Optional(validation.Min(18)),
//	}
//	data, errs := validation.Validate(input, rules)
//
// # Struct tags
//
// Fixed schemas use the validator library:
//
//	type LoginCmd struct {
//	    Email    string `json:"email" validate:"required,email"`
//	    Password string `json:"password" validate:"required"`
//	}
//	errs := validation.ValidateStruct(cmd)
//
// # Programmatic collection
//
//	v := validation.New()
//	if name == "" {
//	    v.AddError("name", validation.MsgRequired)
//	}
//	errs := v.FieldErrors()
package validation
