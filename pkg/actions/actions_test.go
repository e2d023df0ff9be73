package actions_test

import (
	"context"
	"testing"

	"github.com/aretw0/lattice/pkg/actions"
	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func booksConfig() *domain.GridConfig {
	return &domain.GridConfig{
		Table: "authors",
		Fields: []domain.Field{
			{Field: "name"},
			{Field: "books", Type: domain.FieldGrid, Config: &domain.GridConfig{
				Table:           "books",
				SortField:       "position",
				ConnectionField: "authorId",
				Fields:          []domain.Field{{Field: "title"}},
			}},
		},
	}
}

func TestActions_ScopesNestedLevel(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	sub, err := booksConfig().Resolve(status.FromPairs("gridId1", "books", "gridParentId1", "A1"))
	require.NoError(t, err)
	a := actions.New(repo, sub)

	id, err := a.Create(ctx, domain.Record{"title": "Dune"})
	require.NoError(t, err)

	rec, err := repo.Get(ctx, a.Table(), id)
	require.NoError(t, err)
	assert.Equal(t, "A1", rec["authorId"])

	other, err := booksConfig().Resolve(status.FromPairs("gridId1", "books", "gridParentId1", "A2"))
	require.NoError(t, err)
	b := actions.Factory(repo)(other)

	err = b.Delete(ctx, id)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound, "a sibling level cannot touch the record")

	require.NoError(t, a.Update(ctx, id, domain.Record{"title": "Dune Messiah", "authorId": "A2"}))
	rec, err = repo.Get(ctx, a.Table(), id)
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", rec["title"])
	assert.Equal(t, "A1", rec["authorId"], "scope column is not writable")

	second, err := a.Create(ctx, domain.Record{"title": "Children of Dune"})
	require.NoError(t, err)
	require.NoError(t, a.Move(ctx, second, id, domain.Before))

	recs, _, err := repo.List(ctx, a.Table(), domain.Query{})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Children of Dune", recs[0]["title"])

	require.NoError(t, a.Delete(ctx, id))
}

func TestActions_RootIsUnscoped(t *testing.T) {
	sub, err := booksConfig().Resolve(status.Status{})
	require.NoError(t, err)
	assert.Empty(t, actions.New(memory.New(), sub).Table().Scope)
}
