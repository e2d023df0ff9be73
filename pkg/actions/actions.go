// Package actions binds a repository to one resolved grid level.
package actions

import (
	"context"
	"fmt"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
)

// Actions implements ports.Actions on top of a ports.Repository. Nested
// levels are scoped to their parent record: created rows get the connection
// field stamped, and other rows are invisible.
type Actions struct {
	repo  ports.Repository
	table domain.Table
}

// New binds repo to the table of sub.
func New(repo ports.Repository, sub *domain.SubgridConfig) *Actions {
	return &Actions{repo: repo, table: sub.TableRef()}
}

// Factory returns a constructor suitable for the dispatcher.
func Factory(repo ports.Repository) func(*domain.SubgridConfig) ports.Actions {
	return func(sub *domain.SubgridConfig) ports.Actions {
		return New(repo, sub)
	}
}

// Table returns the bound storage descriptor.
func (a *Actions) Table() domain.Table {
	return a.table
}

func (a *Actions) Create(ctx context.Context, data domain.Record) (string, error) {
	id, err := a.repo.Insert(ctx, a.table, data)
	if err != nil {
		return "", fmt.Errorf("create in %s: %w", a.table.Name, err)
	}
	return id, nil
}

func (a *Actions) Update(ctx context.Context, id string, data domain.Record) error {
	if err := a.repo.Update(ctx, a.table, id, data); err != nil {
		return fmt.Errorf("update %s: %w", id, err)
	}
	return nil
}

func (a *Actions) Delete(ctx context.Context, id string) error {
	if err := a.repo.Delete(ctx, a.table, id); err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return nil
}

func (a *Actions) Move(ctx context.Context, id, targetID string, pos domain.Position) error {
	if err := a.repo.Move(ctx, a.table, id, targetID, pos); err != nil {
		return fmt.Errorf("move %s %s %s: %w", id, pos, targetID, err)
	}
	return nil
}
