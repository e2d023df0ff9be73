package ports

import (
	"context"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/status"
)

// Actions commits changes for one resolved grid level.
type Actions interface {
	Create(ctx context.Context, data domain.Record) (string, error)
	Update(ctx context.Context, id string, data domain.Record) error
	Delete(ctx context.Context, id string) error
	Move(ctx context.Context, id, targetID string, pos domain.Position) error
}

// Display renders one resolved grid level and builds its forms.
type Display interface {
	// FullHTML renders the complete grid markup for st.
	FullHTML(ctx context.Context, st status.Status) (string, error)
	CreateForm(ctx context.Context) (Form, error)
	// UpdateForm returns a form prefilled with the record values.
	// Returns domain.ErrRecordNotFound for unknown ids.
	UpdateForm(ctx context.Context, id string) (Form, error)
	SearchForm(ctx context.Context, defaults domain.Params) (Form, error)
}

// Form validates and cleans submitted values.
type Form interface {
	// Validate returns a field -> message mapping; empty means valid.
	Validate(raw domain.Params) map[string]string
	// FilterValues keeps the form fields only and coerces their values.
	FilterValues(raw domain.Params) domain.Record
}
