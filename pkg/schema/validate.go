package schema

import "sort"

// Schema maps field names to the rules their values must satisfy.
// Example: {"email": {Required(), Email()}, "age": {Integer()}}
type Schema map[string][]Rule

// Validate checks data against the schema. A missing field validates as an
// empty string, so only Required rejects absence.
// Returns an AggregateError with every failure, ordered by field name.
func Validate(schema Schema, data map[string]string) error {
	if len(schema) == 0 {
		return nil
	}

	fields := make([]string, 0, len(schema))
	for name := range schema {
		fields = append(fields, name)
	}
	sort.Strings(fields)

	var errs []error
	for _, name := range fields {
		value := data[name]
		for _, rule := range schema[name] {
			if err := rule.Validate(value); err != nil {
				errs = append(errs, &ValidationError{Key: name, Reason: err.Error()})
			}
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
