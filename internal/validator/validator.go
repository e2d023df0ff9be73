package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/schema"
)

var fieldTypes = map[string]bool{
	domain.FieldText:     true,
	domain.FieldTextarea: true,
	domain.FieldInteger:  true,
	domain.FieldFloat:    true,
	domain.FieldEmail:    true,
	domain.FieldCheckbox: true,
	domain.FieldSelect:   true,
	domain.FieldGrid:     true,
}

// ValidateGrids checks every root grid and the grids nested below it.
// All problems are reported at once.
func ValidateGrids(grids []*domain.GridConfig) error {
	var errors []string
	seen := make(map[string]bool)
	for i, cfg := range grids {
		if cfg == nil {
			errors = append(errors, fmt.Sprintf("grids[%d]: empty definition", i))
			continue
		}
		path := cfg.Name
		switch {
		case cfg.Name == "":
			path = fmt.Sprintf("grids[%d]", i)
			errors = append(errors, path+": name is required")
		case seen[cfg.Name]:
			errors = append(errors, fmt.Sprintf("%s: duplicate grid name", path))
		}
		seen[cfg.Name] = true
		errors = append(errors, validateGrid(cfg, path, 0)...)
	}

	if len(errors) > 0 {
		return fmt.Errorf("found %d errors:\n- %s", len(errors), strings.Join(errors, "\n- "))
	}
	return nil
}

func validateGrid(cfg *domain.GridConfig, path string, depth int) []string {
	var errors []string
	if cfg.Table == "" {
		errors = append(errors, path+": table is required")
	}
	if cfg.PageSize < 0 {
		errors = append(errors, fmt.Sprintf("%s: pageSize must not be negative, got %d", path, cfg.PageSize))
	}
	if depth > 0 && cfg.ConnectionField == "" {
		errors = append(errors, path+": nested grid needs a connectionField")
	}
	if name := cfg.PageVariableName; name != "" && reservedKey(name) {
		errors = append(errors, fmt.Sprintf("%s: pageVariableName %q collides with a status key", path, name))
	}
	if len(cfg.Fields) == 0 {
		errors = append(errors, path+": no fields")
	}

	names := make(map[string]bool)
	for i, f := range cfg.Fields {
		fpath := fmt.Sprintf("%s.fields[%d]", path, i)
		if f.Field == "" {
			errors = append(errors, fpath+": field name is required")
		} else {
			fpath = path + "." + f.Field
			if names[f.Field] {
				errors = append(errors, fpath+": duplicate field")
			}
			names[f.Field] = true
		}

		if !fieldTypes[f.InputType()] {
			errors = append(errors, fmt.Sprintf("%s: unknown type %q", fpath, f.Type))
		}
		if _, err := schema.ParseRules(f.Validators); err != nil {
			errors = append(errors, fmt.Sprintf("%s: %v", fpath, err))
		}
		if f.InputType() == domain.FieldSelect && len(f.Options) == 0 {
			errors = append(errors, fpath+": select needs options")
		}

		if f.InputType() == domain.FieldGrid {
			if f.Config == nil {
				errors = append(errors, fpath+": grid field needs a config")
				continue
			}
			errors = append(errors, validateGrid(f.Config, fpath, depth+1)...)
		} else if f.Config != nil {
			errors = append(errors, fpath+": config is only allowed on grid fields")
		}
	}
	return errors
}

// reservedKey reports whether name belongs to a status key family other
// than pages.
func reservedKey(name string) bool {
	for _, prefix := range []string{"gridId", "gridParentId", "s_"} {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
