package schema

import (
	"fmt"
	"net/mail"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Rule defines the contract for field validation.
// Values are validated as submitted by a form: plain strings.
type Rule interface {
	// Name returns the rule as written in configuration (e.g., "required", "max:20").
	Name() string
	// Validate checks if a value conforms to the rule.
	Validate(value string) error
}

// --- Built-in Rule Implementations ---

// RequiredRule rejects blank values.
type RequiredRule struct{}

func (r *RequiredRule) Name() string { return "required" }

func (r *RequiredRule) Validate(value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("is required")
	}
	return nil
}

// IntegerRule accepts whole numbers. Blank values pass; combine with Required.
type IntegerRule struct{}

func (r *IntegerRule) Name() string { return "integer" }

func (r *IntegerRule) Validate(value string) error {
	if value == "" {
		return nil
	}
	if _, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err != nil {
		return fmt.Errorf("must be a whole number")
	}
	return nil
}

// FloatRule accepts decimal numbers.
type FloatRule struct{}

func (r *FloatRule) Name() string { return "float" }

func (r *FloatRule) Validate(value string) error {
	if value == "" {
		return nil
	}
	if _, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err != nil {
		return fmt.Errorf("must be a number")
	}
	return nil
}

// EmailRule accepts a single bare address.
type EmailRule struct{}

func (r *EmailRule) Name() string { return "email" }

func (r *EmailRule) Validate(value string) error {
	if value == "" {
		return nil
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		return fmt.Errorf("must be a valid email address")
	}
	return nil
}

// LengthRule bounds the number of characters.
type LengthRule struct {
	limit int
	max   bool
}

func (r *LengthRule) Name() string {
	if r.max {
		return fmt.Sprintf("max:%d", r.limit)
	}
	return fmt.Sprintf("min:%d", r.limit)
}

func (r *LengthRule) Validate(value string) error {
	n := utf8.RuneCountInString(value)
	if r.max && n > r.limit {
		return fmt.Errorf("must be at most %d characters", r.limit)
	}
	if !r.max && value != "" && n < r.limit {
		return fmt.Errorf("must be at least %d characters", r.limit)
	}
	return nil
}

// OneOfRule accepts only listed values.
type OneOfRule struct {
	options []string
}

func (r *OneOfRule) Name() string { return "in:" + strings.Join(r.options, ",") }

func (r *OneOfRule) Validate(value string) error {
	if value == "" || slices.Contains(r.options, value) {
		return nil
	}
	return fmt.Errorf("must be one of %s", strings.Join(r.options, ", "))
}

// CustomRule applies a user-defined validation function.
type CustomRule struct {
	name     string
	validate func(string) error
}

func (r *CustomRule) Name() string { return r.name }

func (r *CustomRule) Validate(value string) error {
	return r.validate(value)
}

// --- Factory Functions ---

func Required() Rule { return &RequiredRule{} }
func Integer() Rule  { return &IntegerRule{} }
func Float() Rule    { return &FloatRule{} }
func Email() Rule    { return &EmailRule{} }

// MaxLength limits values to n characters.
func MaxLength(n int) Rule { return &LengthRule{limit: n, max: true} }

// MinLength requires non-blank values to have at least n characters.
func MinLength(n int) Rule { return &LengthRule{limit: n} }

// OneOf restricts values to options.
func OneOf(options ...string) Rule { return &OneOfRule{options: options} }

// Custom creates a rule with a user-defined function.
func Custom(name string, validate func(string) error) Rule {
	return &CustomRule{name: name, validate: validate}
}

// ParseRule converts a configuration string to a Rule.
// Supports "required", "integer", "float", "email", "max:N", "min:N" and
// "in:a,b,c".
func ParseRule(spec string) (Rule, error) {
	name, arg, hasArg := strings.Cut(strings.TrimSpace(spec), ":")
	switch name {
	case "required", "integer", "float", "email":
		if hasArg {
			return nil, fmt.Errorf("rule %s takes no argument", name)
		}
	}

	switch name {
	case "required":
		return Required(), nil
	case "integer":
		return Integer(), nil
	case "float":
		return Float(), nil
	case "email":
		return Email(), nil
	case "max", "min":
		n, err := strconv.Atoi(arg)
		if !hasArg || err != nil || n < 0 {
			return nil, fmt.Errorf("rule %s needs a non-negative length, got %q", name, arg)
		}
		if name == "max" {
			return MaxLength(n), nil
		}
		return MinLength(n), nil
	case "in":
		if !hasArg || arg == "" {
			return nil, fmt.Errorf("rule in needs options")
		}
		return OneOf(strings.Split(arg, ",")...), nil
	default:
		return nil, fmt.Errorf("unsupported rule: %s", spec)
	}
}

// ParseRules converts a list of configuration strings.
func ParseRules(specs []string) ([]Rule, error) {
	rules := make([]Rule, 0, len(specs))
	for _, spec := range specs {
		r, err := ParseRule(spec)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}
