package validator

import (
	"strings"
	"testing"

	"github.com/aretw0/lattice/pkg/domain"
)

func validGrid() *domain.GridConfig {
	return &domain.GridConfig{
		Name:  "people",
		Table: "people",
		Fields: []domain.Field{
			{Field: "name", Validators: []string{"required", "max:80"}},
			{Field: "status", Type: domain.FieldSelect, Options: []string{"a", "b"}},
			{Field: "pets", Type: domain.FieldGrid, Config: &domain.GridConfig{
				Table:           "pets",
				ConnectionField: "ownerId",
				Fields:          []domain.Field{{Field: "petName"}},
			}},
		},
	}
}

func TestValidateGrids(t *testing.T) {
	// Scenario A: valid tree
	if err := ValidateGrids([]*domain.GridConfig{validGrid()}); err != nil {
		t.Errorf("Scenario A (Valid) failed: %v", err)
	}

	// Scenario B: broken nested grid
	broken := validGrid()
	broken.Fields[2].Config.ConnectionField = ""
	broken.Fields[2].Config.Fields = append(broken.Fields[2].Config.Fields, domain.Field{Field: "petName"})
	err := ValidateGrids([]*domain.GridConfig{broken})
	if err == nil {
		t.Fatal("Scenario B (Broken) should have failed")
	}
	for _, want := range []string{"people.pets: nested grid needs a connectionField", "people.pets.petName: duplicate field"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Expected %q in error, got: %v", want, err)
		}
	}
}

func TestValidateGrids_Fields(t *testing.T) {
	cfg := validGrid()
	cfg.Fields = append(cfg.Fields,
		domain.Field{Field: "age", Validators: []string{"max:x"}},
		domain.Field{Field: "kind", Type: domain.FieldSelect},
		domain.Field{Field: "shape", Type: "hexagon"},
		domain.Field{Field: "orphan", Type: domain.FieldGrid},
		domain.Field{Field: "misplaced", Config: &domain.GridConfig{}},
		domain.Field{},
	)
	err := ValidateGrids([]*domain.GridConfig{cfg})
	if err == nil {
		t.Fatal("expected errors")
	}
	msg := err.Error()
	for _, want := range []string{
		"found 6 errors",
		"people.age:",
		"people.kind: select needs options",
		`people.shape: unknown type "hexagon"`,
		"people.orphan: grid field needs a config",
		"people.misplaced: config is only allowed on grid fields",
		"people.fields[8]: field name is required",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("Expected %q in error, got: %v", want, msg)
		}
	}
}

func TestValidateGrids_Roots(t *testing.T) {
	a, b := validGrid(), validGrid()
	nameless := validGrid()
	nameless.Name = ""
	nameless.Table = ""
	bad := validGrid()
	bad.Name = "bad"
	bad.PageSize = -1
	bad.PageVariableName = "s_page"

	err := ValidateGrids([]*domain.GridConfig{a, b, nameless, bad, nil})
	if err == nil {
		t.Fatal("expected errors")
	}
	msg := err.Error()
	for _, want := range []string{
		"people: duplicate grid name",
		"grids[2]: name is required",
		"grids[2]: table is required",
		"bad: pageSize must not be negative",
		`bad: pageVariableName "s_page" collides`,
		"grids[4]: empty definition",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("Expected %q in error, got: %v", want, msg)
		}
	}
}
