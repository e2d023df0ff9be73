package display

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/schema"
)

// Form kinds, also used as the data-method of the rendered form.
const (
	FormCreate = "create"
	FormUpdate = "update"
	FormSearch = "search"
)

// FormField is one input of a form.
type FormField struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Value    string   `json:"value"`
	Options  []string `json:"options,omitempty"`
	Rules    []string `json:"rules,omitempty"`
	ReadOnly bool     `json:"readOnly,omitempty"`
	Hidden   bool     `json:"hidden,omitempty"`
}

// Form implements ports.Form. It marshals to a descriptor holding its
// fields and rendered markup.
type Form struct {
	Method string
	Fields []FormField
	schema schema.Schema
}

// Validate returns field -> message for every failing field.
func (f *Form) Validate(raw domain.Params) map[string]string {
	errs := map[string]string{}
	if err := schema.Validate(f.schema, raw); err != nil {
		errs = schema.Messages(err)
	}
	if f.Method == FormSearch && raw[domain.ParamAntispam] != "" {
		errs[domain.ParamAntispam] = "spam detected"
	}
	return errs
}

// FilterValues keeps the visible editable fields of the form, trimmed. Checkboxes
// become "1" or "0"; in search forms an unchecked box stays empty so it
// does not become a filter.
func (f *Form) FilterValues(raw domain.Params) domain.Record {
	out := domain.Record{}
	for _, field := range f.Fields {
		if field.ReadOnly || field.Hidden {
			continue
		}
		value := strings.TrimSpace(raw[field.Name])
		if field.Type == domain.FieldCheckbox {
			switch {
			case checked(value):
				value = "1"
			case f.Method == FormSearch:
				value = ""
			default:
				value = "0"
			}
		}
		out[field.Name] = value
	}
	return out
}

// Field returns the named field.
func (f *Form) Field(name string) (FormField, bool) {
	for _, field := range f.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return FormField{}, false
}

// Render returns the form markup.
func (f *Form) Render() (string, error) {
	submit := map[string]string{
		FormCreate: "Create",
		FormUpdate: "Save",
		FormSearch: "Search",
	}[f.Method]

	var buf bytes.Buffer
	err := templates.ExecuteTemplate(&buf, "form", struct {
		*Form
		Submit string
	}{f, submit})
	if err != nil {
		return "", fmt.Errorf("render %s form: %w", f.Method, err)
	}
	return buf.String(), nil
}

// MarshalJSON writes {"fields": [...], "html": "..."}.
func (f *Form) MarshalJSON() ([]byte, error) {
	html, err := f.Render()
	if err != nil {
		return nil, err
	}
	fields := f.Fields
	if fields == nil {
		fields = []FormField{}
	}
	return json.Marshal(struct {
		Method string      `json:"method"`
		Fields []FormField `json:"fields"`
		HTML   string      `json:"html"`
	}{f.Method, fields, html})
}

// buildForm assembles a form from field definitions. Type-implied rules
// (integer, float, email, select options) are added to the configured ones;
// search forms drop "required".
func buildForm(method string, fields []domain.Field, values map[string]string, label func(domain.Field) string) (*Form, error) {
	form := &Form{Method: method, schema: schema.Schema{}}
	for _, def := range fields {
		specs := make([]string, 0, len(def.Validators)+1)
		for _, spec := range def.Validators {
			if method == FormSearch && strings.TrimSpace(spec) == "required" {
				continue
			}
			specs = append(specs, spec)
		}
		rules, err := schema.ParseRules(specs)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", def.Field, err)
		}
		switch def.InputType() {
		case domain.FieldInteger:
			rules = append(rules, schema.Integer())
		case domain.FieldFloat:
			rules = append(rules, schema.Float())
		case domain.FieldEmail:
			rules = append(rules, schema.Email())
		case domain.FieldSelect:
			if len(def.Options) > 0 {
				rules = append(rules, schema.OneOf(def.Options...))
			}
		}

		names := make([]string, len(rules))
		for i, r := range rules {
			names[i] = r.Name()
		}
		if !def.ReadOnly && len(rules) > 0 {
			form.schema[def.Field] = rules
		}

		value, ok := values[def.Field]
		if !ok {
			value = def.Default
		}
		form.Fields = append(form.Fields, FormField{
			Name:     def.Field,
			Label:    label(def),
			Type:     def.InputType(),
			Value:    value,
			Options:  def.Options,
			Rules:    names,
			ReadOnly: def.ReadOnly,
		})
	}
	return form, nil
}

func (f *Form) addHidden(name, value string) {
	f.Fields = append(f.Fields, FormField{Name: name, Type: "hidden", Value: value, Hidden: true})
}

func checked(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "0", "false", "off", "no":
		return false
	}
	return true
}
