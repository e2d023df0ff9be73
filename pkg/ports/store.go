package ports

import (
	"context"

	"github.com/aretw0/lattice/pkg/domain"
)

// Repository defines the storage backend shared by every grid.
// All operations are restricted to the records matching Table.Scope.
type Repository interface {
	// Insert stores a new record, stamping the scope values and placing it
	// last in the sort order. It returns the new record id.
	Insert(ctx context.Context, t domain.Table, rec domain.Record) (string, error)

	// Update overwrites the given columns of an existing record.
	// Returns domain.ErrRecordNotFound if the record does not exist in scope.
	Update(ctx context.Context, t domain.Table, id string, rec domain.Record) error

	// Delete removes a record.
	// Returns domain.ErrRecordNotFound if the record does not exist in scope.
	Delete(ctx context.Context, t domain.Table, id string) error

	// Move places record id right before or after targetID and renumbers the
	// sort field of the scope. The table must have a sort field.
	Move(ctx context.Context, t domain.Table, id, targetID string, pos domain.Position) error

	// Get loads a single record.
	// Returns domain.ErrRecordNotFound if the record does not exist in scope.
	Get(ctx context.Context, t domain.Table, id string) (domain.Record, error)

	// List returns one page of records in sort order together with the
	// total number of records matching the query filters. A zero Limit
	// returns every record from Offset on.
	List(ctx context.Context, t domain.Table, q domain.Query) ([]domain.Record, int, error)
}
