package domain

import (
	"fmt"

	"github.com/aretw0/lattice/pkg/status"
)

// Field types understood by the default display.
const (
	FieldText     = "text"
	FieldTextarea = "textarea"
	FieldInteger  = "integer"
	FieldFloat    = "float"
	FieldEmail    = "email"
	FieldCheckbox = "checkbox"
	FieldSelect   = "select"
	// FieldGrid nests a child grid under each record.
	FieldGrid = "grid"
)

const (
	DefaultIDField  = "id"
	DefaultPageSize = 10
)

// GridConfig describes one grid and, through its grid fields, every grid
// nested below it.
type GridConfig struct {
	Name  string `json:"name" yaml:"name" mapstructure:"name"`
	Title string `json:"title,omitempty" yaml:"title,omitempty" mapstructure:"title"`
	Table string `json:"table" yaml:"table" mapstructure:"table"`

	IDField   string `json:"idField,omitempty" yaml:"idField,omitempty" mapstructure:"idField"`
	SortField string `json:"sortField,omitempty" yaml:"sortField,omitempty" mapstructure:"sortField"`
	PageSize  int    `json:"pageSize,omitempty" yaml:"pageSize,omitempty" mapstructure:"pageSize"`

	// PageVariableName overrides the status key holding the current page.
	PageVariableName string `json:"pageVariableName,omitempty" yaml:"pageVariableName,omitempty" mapstructure:"pageVariableName"`

	// ConnectionField is the column of a nested grid holding the parent
	// record id. Unused at the root.
	ConnectionField string `json:"connectionField,omitempty" yaml:"connectionField,omitempty" mapstructure:"connectionField"`

	AllowCreate *bool `json:"allowCreate,omitempty" yaml:"allowCreate,omitempty" mapstructure:"allowCreate"`
	AllowUpdate *bool `json:"allowUpdate,omitempty" yaml:"allowUpdate,omitempty" mapstructure:"allowUpdate"`
	AllowDelete *bool `json:"allowDelete,omitempty" yaml:"allowDelete,omitempty" mapstructure:"allowDelete"`
	AllowSearch *bool `json:"allowSearch,omitempty" yaml:"allowSearch,omitempty" mapstructure:"allowSearch"`

	Fields []Field `json:"fields" yaml:"fields" mapstructure:"fields"`

	// Hooks are bound programmatically, never loaded from files.
	Hooks Hooks `json:"-" yaml:"-" mapstructure:"-"`
}

// Field describes one column of a grid.
type Field struct {
	Field      string   `json:"field" yaml:"field" mapstructure:"field"`
	Label      string   `json:"label,omitempty" yaml:"label,omitempty" mapstructure:"label"`
	Type       string   `json:"type,omitempty" yaml:"type,omitempty" mapstructure:"type"`
	Validators []string `json:"validators,omitempty" yaml:"validators,omitempty" mapstructure:"validators"`
	Options    []string `json:"options,omitempty" yaml:"options,omitempty" mapstructure:"options"`
	Default    string   `json:"default,omitempty" yaml:"default,omitempty" mapstructure:"default"`
	Preview    *bool    `json:"preview,omitempty" yaml:"preview,omitempty" mapstructure:"preview"`
	Searchable bool     `json:"searchable,omitempty" yaml:"searchable,omitempty" mapstructure:"searchable"`
	ReadOnly   bool     `json:"readOnly,omitempty" yaml:"readOnly,omitempty" mapstructure:"readOnly"`

	// Config is the child grid of a FieldGrid field.
	Config *GridConfig `json:"config,omitempty" yaml:"config,omitempty" mapstructure:"config"`
}

// InputType returns the field type, defaulting to text.
func (f Field) InputType() string {
	if f.Type == "" {
		return FieldText
	}
	return f.Type
}

// Previewed reports whether the field is shown in the table.
func (f Field) Previewed() bool {
	return f.Preview == nil || *f.Preview
}

// Editable reports whether the field takes part in create and update forms.
func (f Field) Editable() bool {
	return !f.ReadOnly && f.InputType() != FieldGrid
}

// IDFieldName returns the configured id column or "id".
func (c *GridConfig) IDFieldName() string {
	if c.IDField == "" {
		return DefaultIDField
	}
	return c.IDField
}

// RowsPerPage returns the configured page size or the default.
func (c *GridConfig) RowsPerPage() int {
	if c.PageSize <= 0 {
		return DefaultPageSize
	}
	return c.PageSize
}

func (c *GridConfig) CanCreate() bool { return allowed(c.AllowCreate) }
func (c *GridConfig) CanUpdate() bool { return allowed(c.AllowUpdate) }
func (c *GridConfig) CanDelete() bool { return allowed(c.AllowDelete) }

// CanSearch reports whether searching is enabled and at least one field is
// searchable.
func (c *GridConfig) CanSearch() bool {
	if !allowed(c.AllowSearch) {
		return false
	}
	for _, f := range c.Fields {
		if f.Searchable {
			return true
		}
	}
	return false
}

// CanSort reports whether records can be reordered.
func (c *GridConfig) CanSort() bool {
	return c.SortField != ""
}

// FieldByName returns the named field.
func (c *GridConfig) FieldByName(name string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Field == name {
			return f, true
		}
	}
	return Field{}, false
}

// Children returns the grid fields of c in declaration order.
func (c *GridConfig) Children() []Field {
	var out []Field
	for _, f := range c.Fields {
		if f.InputType() == FieldGrid {
			out = append(out, f)
		}
	}
	return out
}

func allowed(flag *bool) bool {
	return flag == nil || *flag
}

// Ancestor is one level of the path from the root grid to the addressed
// grid.
type Ancestor struct {
	Config *GridConfig
	// GridID is the grid field selected at this level; empty for the root.
	GridID string
	// ParentID is the record the next level is nested under.
	ParentID string
}

// SubgridConfig is the resolved, read-only configuration of the grid level a
// status addresses. It is built per dispatch and never cached.
type SubgridConfig struct {
	*GridConfig

	// Depth is the nesting level; 0 for the root grid.
	Depth int
	// GridID is the grid field selected for this level; empty at the root.
	GridID string
	// ParentID is the record this level is nested under; empty at the root.
	ParentID string
	// Chain lists the ancestors from the root down to the parent level.
	Chain []Ancestor
}

// PageKey returns the status key holding the current page of this level.
func (s *SubgridConfig) PageKey() string {
	if s.PageVariableName != "" {
		return s.PageVariableName
	}
	return status.PageKey(s.Depth)
}

// TableRef returns the storage descriptor for this level, scoped to the
// parent record when nested.
func (s *SubgridConfig) TableRef() Table {
	t := Table{
		Name:      s.Table,
		IDField:   s.IDFieldName(),
		SortField: s.SortField,
	}
	if s.Depth > 0 && s.ConnectionField != "" {
		t.Scope = map[string]string{s.ConnectionField: s.ParentID}
	}
	return t
}

// Resolve walks the nesting levels addressed by st and returns the
// configuration of the deepest one. Level n selects the grid field named by
// gridId{n} in the configuration of level n-1.
func (c *GridConfig) Resolve(st status.Status) (*SubgridConfig, error) {
	current := c
	sub := &SubgridConfig{GridConfig: c}

	depth := status.Depth(st)
	for n := 1; n <= depth; n++ {
		gridID, parentID := status.Level(st, n)

		field, ok := current.FieldByName(gridID)
		if !ok {
			return nil, &ConfigurationError{Level: n, GridID: gridID, Reason: "no such field"}
		}
		if field.InputType() != FieldGrid {
			return nil, &ConfigurationError{Level: n, GridID: gridID, Reason: fmt.Sprintf("field type is %q, not grid", field.InputType())}
		}
		if field.Config == nil {
			return nil, &ConfigurationError{Level: n, GridID: gridID, Reason: "grid field has no config"}
		}

		sub.Chain = append(sub.Chain, Ancestor{Config: current, GridID: sub.GridID, ParentID: parentID})
		current = field.Config
		sub.GridConfig = current
		sub.Depth = n
		sub.GridID = gridID
		sub.ParentID = parentID
	}
	return sub, nil
}
