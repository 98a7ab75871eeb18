package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Default messages produced by the built-in rules.
const (
	MsgRequired     = "Required"
	MsgInvalidEmail = "Invalid email address"
	MsgInvalidUUID  = "Must be a valid UUID"
	MsgNotANumber   = "Must be a number"
	MsgNotAString   = "Must be a string"
	MsgBadFormat    = "Does not match required format"
)

// Rule validates a single field value. It returns the accepted (possibly
// normalized) value or an error whose message is reported for the field.
// value is nil when the field is absent from the input.
type Rule func(value any) (any, error)

// Rules maps field names to the rule that validates them.
type Rules map[string]Rule

// Merge returns a new rule set with overrides replacing same-named rules.
// Rule internals are never combined.
func (r Rules) Merge(overrides Rules) Rules {
	out := make(Rules, len(r)+len(overrides))
	maps.Copy(out, r)
	for name, rule := range overrides {
		if rule != nil {
			out[name] = rule
		}
	}
	return out
}

// FieldErrors maps a field name to its validation message.
type FieldErrors map[string]string

// Fields returns the failing field names in sorted order.
func (fe FieldErrors) Fields() []string {
	return slices.Sorted(maps.Keys(fe))
}

// First returns the message of the first failing field in sorted order.
func (fe FieldErrors) First() string {
	for _, f := range fe.Fields() {
		return fe[f]
	}
	return ""
}

// Validate evaluates rules against input. Declared fields are replaced by the
// value their rule accepted; undeclared fields pass through untouched.
// The returned FieldErrors is nil when every rule passed.
func Validate(input map[string]any, rules Rules) (map[string]any, FieldErrors) {
	data := make(map[string]any, len(input))
	maps.Copy(data, input)

	v := New()
	for _, field := range slices.Sorted(maps.Keys(rules)) {
		rule := rules[field]
		if rule == nil {
			continue
		}
		raw, present := input[field]
		accepted, err := rule(raw)
		if err != nil {
			v.AddError(field, err.Error())
			continue
		}
		if !present && accepted == nil {
			continue
		}
		data[field] = accepted
	}

	if !v.HasErrors() {
		return data, nil
	}
	return nil, v.FieldErrors()
}

// Required rejects absent values and blank strings.
func Required() Rule {
	return func(value any) (any, error) {
		if isBlank(value) {
			return nil, errors.New(MsgRequired)
		}
		return value, nil
	}
}

// NonEmpty is Required with a custom message.
func NonEmpty(message string) Rule {
	return func(value any) (any, error) {
		if isBlank(value) {
			return nil, errors.New(message)
		}
		return value, nil
	}
}

// Email accepts syntactically valid email addresses. Surrounding whitespace
// is trimmed from the accepted value.
func Email() Rule {
	return func(value any) (any, error) {
		s, ok := value.(string)
		if !ok {
			return nil, errors.New(MsgInvalidEmail)
		}
		s = strings.TrimSpace(s)
		if err := structValidator().Var(s, "required,email"); err != nil {
			return nil, errors.New(MsgInvalidEmail)
		}
		return s, nil
	}
}

// MinLength accepts strings with at least n characters.
func MinLength(n int) Rule {
	return func(value any) (any, error) {
		s, ok := value.(string)
		if !ok {
			if value == nil {
				return nil, errors.New(MsgRequired)
			}
			return nil, errors.New(MsgNotAString)
		}
		if len([]rune(s)) < n {
			return nil, fmt.Errorf("Must be at least %d characters", n)
		}
		return s, nil
	}
}

// MaxLength accepts strings with at most n characters.
func MaxLength(n int) Rule {
	return func(value any) (any, error) {
		s, ok := value.(string)
		if !ok {
			if value == nil {
				return nil, errors.New(MsgRequired)
			}
			return nil, errors.New(MsgNotAString)
		}
		if len([]rune(s)) > n {
			return nil, fmt.Errorf("Must be %d characters or less", n)
		}
		return s, nil
	}
}

// Min accepts numbers greater than or equal to minVal.
func Min(minVal float64) Rule {
	return func(value any) (any, error) {
		n, err := toNumber(value)
		if err != nil {
			return nil, err
		}
		if n < minVal {
			return nil, fmt.Errorf("Must be at least %s", formatNumber(minVal))
		}
		return value, nil
	}
}

// Max accepts numbers less than or equal to maxVal.
func Max(maxVal float64) Rule {
	return func(value any) (any, error) {
		n, err := toNumber(value)
		if err != nil {
			return nil, err
		}
		if n > maxVal {
			return nil, fmt.Errorf("Must be %s or less", formatNumber(maxVal))
		}
		return value, nil
	}
}

// Range accepts numbers within [minVal, maxVal].
func Range(minVal, maxVal float64) Rule {
	return func(value any) (any, error) {
		n, err := toNumber(value)
		if err != nil {
			return nil, err
		}
		if n < minVal || n > maxVal {
			return nil, fmt.Errorf("Must be between %s and %s", formatNumber(minVal), formatNumber(maxVal))
		}
		return value, nil
	}
}

// OneOf accepts one of the allowed strings.
func OneOf(allowed ...string) Rule {
	return func(value any) (any, error) {
		s, _ := value.(string)
		if slices.Contains(allowed, s) {
			return s, nil
		}
		return nil, fmt.Errorf("Must be one of: %s", strings.Join(allowed, ", "))
	}
}

// Pattern accepts strings matching the regular expression. It panics if the
// expression does not compile.
func Pattern(expr string) Rule {
	re := regexp.MustCompile(expr)
	return func(value any) (any, error) {
		s, ok := value.(string)
		if !ok || !re.MatchString(s) {
			return nil, errors.New(MsgBadFormat)
		}
		return s, nil
	}
}

// UUID accepts a valid, non-nil UUID string.
func UUID() Rule {
	return func(value any) (any, error) {
		s, _ := value.(string)
		id, err := uuid.Parse(strings.TrimSpace(s))
		if err != nil || id == uuid.Nil {
			return nil, errors.New(MsgInvalidUUID)
		}
		return id.String(), nil
	}
}

// Tag validates with any validator library tag expression, e.g. "url" or
// "alphanum,min=3".
func Tag(tag, message string) Rule {
	return func(value any) (any, error) {
		if err := structValidator().Var(value, tag); err != nil {
			return nil, errors.New(message)
		}
		return value, nil
	}
}

// Optional skips rule when the value is absent.
func Optional(rule Rule) Rule {
	return func(value any) (any, error) {
		if value == nil {
			return nil, nil
		}
		return rule(value)
	}
}

// Chain runs rules in order, feeding each accepted value into the next.
// The first failure wins.
func Chain(rules ...Rule) Rule {
	return func(value any) (any, error) {
		var err error
		for _, r := range rules {
			if value, err = r(value); err != nil {
				return nil, err
			}
		}
		return value, nil
	}
}

// Func builds a rule from a predicate.
func Func(ok func(value any) bool, message string) Rule {
	return func(value any) (any, error) {
		if !ok(value) {
			return nil, errors.New(message)
		}
		return value, nil
	}
}

func isBlank(value any) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func toNumber(value any) (float64, error) {
	switch n := value.(type) {
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	case json.Number:
		return n.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, errors.New(MsgNotANumber)
		}
		return f, nil
	case nil:
		return 0, errors.New(MsgRequired)
	default:
		return 0, errors.New(MsgNotANumber)
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
