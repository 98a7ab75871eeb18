package validation

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

func TestValidatorFieldErrorsKeepsFirstMessage(t *testing.T) {
	v := New()
	v.AddError("email", "first")
	v.AddError("email", "second")
	v.AddError("age", "too young")

	fe := v.FieldErrors()
	if fe["email"] != "first" {
		t.Errorf("expected first message to win, got %q", fe["email"])
	}
	if len(fe) != 2 {
		t.Errorf("expected 2 fields, got %d", len(fe))
	}
	if New().FieldErrors() != nil {
		t.Error("expected nil FieldErrors for an empty validator")
	}
}

func TestEmailRule(t *testing.T) {
	tests := []struct {
		name  string
		value any
		ok    bool
	}{
		{"valid", "a@b.com", true},
		{"trimmed", "  a@b.com ", true},
		{"missing at", "ab.com", false},
		{"empty", "", false},
		{"absent", nil, false},
		{"not a string", 42, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Email()(tc.value)
			if tc.ok {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got != "a@b.com" {
					t.Errorf("expected trimmed email, got %v", got)
				}
				return
			}
			if err == nil || err.Error() != MsgInvalidEmail {
				t.Errorf("expected %q, got %v", MsgInvalidEmail, err)
			}
		})
	}
}

func TestMinLengthRule(t *testing.T) {
	if _, err := MinLength(6)("secret1"); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	_, err := MinLength(6)("abc")
	if err == nil || err.Error() != "Must be at least 6 characters" {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := MinLength(6)(nil); err == nil || err.Error() != MsgRequired {
		t.Errorf("expected required error for absent value, got %v", err)
	}
}

func TestNumberRules(t *testing.T) {
	tests := []struct {
		name  string
		rule  Rule
		value any
		ok    bool
	}{
		{"min int ok", Min(18), 18, true},
		{"min int below", Min(18), 17, false},
		{"min float from json", Min(18), float64(21), true},
		{"min json number", Min(18), json.Number("12"), false},
		{"min numeric string", Min(18), "30", true},
		{"min not a number", Min(18), "abc", false},
		{"max ok", Max(10), 10, true},
		{"max above", Max(10), 11, false},
		{"range ok", Range(1, 5), 3, true},
		{"range below", Range(1, 5), 0, false},
		{"range above", Range(1, 5), 6.5, false},
		{"absent", Min(1), nil, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.rule(tc.value)
			if tc.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Error("expected error")
			}
		})
	}

	_, err := Min(18)(5)
	if err.Error() != "Must be at least 18" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestMiscRules(t *testing.T) {
	if _, err := OneOf("a", "b")("c"); err == nil {
		t.Error("expected oneOf error")
	}
	if _, err := Pattern(`^[A-Z]+$`)("ABC"); err != nil {
		t.Errorf("expected pattern match, got %v", err)
	}
	if _, err := Pattern(`^[A-Z]+$`)("abc"); err == nil {
		t.Error("expected pattern mismatch")
	}
	if _, err := UUID()(uuid.New().String()); err != nil {
		t.Errorf("expected valid uuid, got %v", err)
	}
	if _, err := UUID()(uuid.Nil.String()); err == nil {
		t.Error("expected nil uuid to be rejected")
	}
	if _, err := Tag("url", "bad url")("https://example.com"); err != nil {
		t.Errorf("expected valid url, got %v", err)
	}
	if _, err := Tag("url", "bad url")("nope"); err == nil || err.Error() != "bad url" {
		t.Errorf("expected custom tag message, got %v", err)
	}
	if _, err := NonEmpty("Name is required")(" "); err == nil || err.Error() != "Name is required" {
		t.Errorf("expected custom message, got %v", err)
	}
	if _, err := Func(func(v any) bool { return v == "yes" }, "say yes")("no"); err == nil {
		t.Error("expected func rule to fail")
	}
}

func TestOptionalAndChain(t *testing.T) {
	got, err := Optional(Min(18))(nil)
	if err != nil || got != nil {
		t.Errorf("expected optional to skip absent value, got %v %v", got, err)
	}
	if _, err := Optional(Min(18))(3); err == nil {
		t.Error("expected optional to apply rule when present")
	}

	rule := Chain(Required(), Email())
	if _, err := rule(""); err == nil || err.Error() != MsgRequired {
		t.Errorf("expected first rule to fail first, got %v", err)
	}
	got, err = rule(" x@y.io ")
	if err != nil || got != "x@y.io" {
		t.Errorf("expected chained value, got %v %v", got, err)
	}
}

func TestValidatePassesUnknownFieldsThrough(t *testing.T) {
	input := map[string]any{
		"email":    " a@b.com",
		"password": "secret1",
		"nickname": "neo",
	}
	data, errs := Validate(input, Rules{"email": Email(), "password": MinLength(6)})
	if errs != nil {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if data["email"] != "a@b.com" {
		t.Errorf("expected accepted value to replace raw, got %v", data["email"])
	}
	if data["nickname"] != "neo" {
		t.Errorf("expected undeclared field to pass through, got %v", data["nickname"])
	}
	if input["email"] != " a@b.com" {
		t.Error("input map must not be modified")
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	input := map[string]any{"email": "bad", "password": "123"}
	data, errs := Validate(input, Rules{"email": Email(), "password": MinLength(6)})
	if data != nil {
		t.Error("expected nil data on failure")
	}
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %v", errs)
	}
	if errs.First() != MsgInvalidEmail {
		t.Errorf("expected first error to be the email error, got %q", errs.First())
	}
	if got := errs.Fields(); got[0] != "email" || got[1] != "password" {
		t.Errorf("expected sorted fields, got %v", got)
	}
}

func TestValidateOptionalAbsentFieldNotAdded(t *testing.T) {
	data, errs := Validate(map[string]any{}, Rules{"age": Optional(Min(1))})
	if errs != nil {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if _, ok := data["age"]; ok {
		t.Error("absent optional field must not be added")
	}
}

func TestRulesMerge(t *testing.T) {
	base := Rules{"email": Email(), "password": MinLength(6)}
	merged := base.Merge(Rules{"password": MinLength(12), "age": Min(18)})
	if len(merged) != 3 {
		t.Fatalf("expected 3 rules, got %d", len(merged))
	}
	if _, err := merged["password"]("secret1"); err == nil {
		t.Error("expected override to replace the default rule")
	}
	if _, err := base["password"]("secret1"); err != nil {
		t.Error("merge must not modify the receiver")
	}
}

func TestValidateStruct(t *testing.T) {
	type Login struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	if errs := ValidateStruct(Login{Email: "john@example.com", Password: "x"}); errs != nil {
		t.Errorf("expected no error, got %v", errs)
	}

	errs := ValidateStruct(Login{Email: "not-an-email"})
	if errs["email"] != MsgInvalidEmail {
		t.Errorf("expected email error, got %v", errs)
	}
	if errs["password"] != MsgRequired {
		t.Errorf("expected password error, got %v", errs)
	}
}

func TestValidateStructBounds(t *testing.T) {
	type Profile struct {
		Name string `json:"name" validate:"min=2,max=4"`
		Age  int    `json:"age" validate:"min=18"`
		Role string `validate:"oneof=admin user"`
	}

	errs := ValidateStruct(Profile{Name: "x", Age: 3, Role: "root"})
	want := FieldErrors{
		"name": "Must be at least 2 characters",
		"age":  "Must be at least 18",
		"role": "Must be one of: admin user",
	}
	for field, msg := range want {
		if errs[field] != msg {
			t.Errorf("%s: expected %q, got %q", field, msg, errs[field])
		}
	}
	if errs := ValidateStruct(Profile{Name: "toolong", Age: 20, Role: "user"}); errs["name"] != "Must be at most 4 characters" {
		t.Errorf("unexpected errors %v", errs)
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"Name":          "name",
		"FirstName":     "first_name",
		"userID":        "user_id",
		"ID":            "id",
		"HTTPServer":    "http_server",
		"APIKeyID":      "api_key_id",
		"address2Line":  "address2_line",
		"confirm_email": "confirm_email",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
