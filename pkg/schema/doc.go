// Package schema provides validation rules for form fields.
//
// Form values arrive as strings. A Schema maps each field to the rules its
// value must satisfy, and Validate reports every failure at once:
//
//	s := schema.Schema{
//	    "email": {schema.Required(), schema.Email()},
//	    "age":   {schema.Integer()},
//	    "title": {schema.MaxLength(80)},
//	}
//
//	if err := schema.Validate(s, values); err != nil {
//	    messages := schema.Messages(err) // field -> first failure
//	}
//
// Rules can also be parsed from configuration strings such as "required",
// "max:80" or "in:draft,published" with ParseRule.
package schema
