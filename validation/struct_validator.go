package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// structValidator is built on first use; validator caches per-type metadata.
var structValidator = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return toSnakeCase(fld.Name)
		}
		return name
	})
	return v
})

// tagMessages maps validator tags to messages. Entries ending in a space
// take the tag parameter as a suffix.
var tagMessages = map[string]string{
	"required": MsgRequired,
	"email":    MsgInvalidEmail,
	"uuid":     MsgInvalidUUID,
	"url":      "Must be a valid URL",
	"oneof":    "Must be one of: ",
}

// ValidateStruct checks s against its `validate` struct tags, keying
// failures by the json field name. It returns nil when s is valid.
func ValidateStruct(s any) FieldErrors {
	err := structValidator().Struct(s)
	if err == nil {
		return nil
	}
	var failures validator.ValidationErrors
	if !errors.As(err, &failures) {
		return FieldErrors{"general": "Invalid input"}
	}
	v := New()
	for _, fe := range failures {
		v.AddError(fe.Field(), tagMessage(fe))
	}
	return v.FieldErrors()
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min", "max":
		bound := "at least "
		if fe.Tag() == "max" {
			bound = "at most "
		}
		suffix := ""
		if fe.Kind() == reflect.String {
			suffix = " characters"
		}
		return "Must be " + bound + fe.Param() + suffix
	}
	msg, ok := tagMessages[fe.Tag()]
	if !ok {
		return "Is invalid"
	}
	if strings.HasSuffix(msg, " ") {
		return msg + fe.Param()
	}
	return msg
}

// toSnakeCase lowercases s and starts a new word at each upper case letter
// that follows a lower case letter or digit, or that begins a word after an
// acronym. "userID" becomes "user_id" and "HTTPServer" becomes "http_server".
func toSnakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
