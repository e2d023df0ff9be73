package schema_test

import (
	"errors"
	"testing"

	"github.com/aretw0/lattice/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRules(t *testing.T) {
	tests := []struct {
		rule  schema.Rule
		value string
		ok    bool
	}{
		{schema.Required(), "x", true},
		{schema.Required(), "  ", false},
		{schema.Integer(), "42", true},
		{schema.Integer(), "-7", true},
		{schema.Integer(), "4.2", false},
		{schema.Integer(), "", true},
		{schema.Float(), "4.2", true},
		{schema.Float(), "four", false},
		{schema.Email(), "ann@example.com", true},
		{schema.Email(), "Ann <ann@example.com>", false},
		{schema.Email(), "nope", false},
		{schema.MaxLength(3), "héé", true},
		{schema.MaxLength(3), "abcd", false},
		{schema.MinLength(2), "a", false},
		{schema.MinLength(2), "", true},
		{schema.OneOf("draft", "live"), "live", true},
		{schema.OneOf("draft", "live"), "gone", false},
	}
	for _, tt := range tests {
		t.Run(tt.rule.Name()+"/"+tt.value, func(t *testing.T) {
			err := tt.rule.Validate(tt.value)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestParseRule(t *testing.T) {
	for _, spec := range []string{"required", "integer", "float", "email", "max:10", "min:0", "in:a,b"} {
		r, err := schema.ParseRule(spec)
		require.NoError(t, err, spec)
		assert.Equal(t, spec, r.Name())
	}

	for _, spec := range []string{"", "max", "max:-1", "max:x", "required:1", "in:", "unknown"} {
		_, err := schema.ParseRule(spec)
		assert.Error(t, err, spec)
	}

	_, err := schema.ParseRules([]string{"required", "bogus"})
	assert.Error(t, err)
}

func TestValidate_CollectsEveryFailure(t *testing.T) {
	s := schema.Schema{
		"name":  {schema.Required(), schema.MaxLength(3)},
		"age":   {schema.Integer()},
		"email": {schema.Email()},
	}

	err := schema.Validate(s, map[string]string{"name": "", "age": "x", "email": "a@b.co"})
	require.Error(t, err)
	assert.Len(t, schema.ValidationErrors(err), 2)
	assert.Equal(t, map[string]string{
		"age":  "must be a whole number",
		"name": "is required",
	}, schema.Messages(err))

	assert.NoError(t, schema.Validate(s, map[string]string{"name": "Ann", "age": "3"}))
	assert.NoError(t, schema.Validate(nil, nil))
}

func TestMessages_KeepsFirstFailure(t *testing.T) {
	s := schema.Schema{"code": {schema.MinLength(3), schema.Integer()}}
	err := schema.Validate(s, map[string]string{"code": "x"})
	assert.Equal(t, map[string]string{"code": "must be at least 3 characters"}, schema.Messages(err))
	assert.Nil(t, schema.ValidationErrors(errors.New("plain")))
}

func TestCustom(t *testing.T) {
	even := schema.Custom("even", func(v string) error {
		if len(v)%2 != 0 {
			return errors.New("must have even length")
		}
		return nil
	})
	assert.Equal(t, "even", even.Name())
	assert.NoError(t, even.Validate("ab"))
	assert.Error(t, even.Validate("abc"))
}
