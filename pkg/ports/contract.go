package ports

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ContractColumns lists the columns RunRepositoryContract writes. Backends
// with a fixed schema must provide them on the contract table, plus the id
// and sort columns named by the table.
var ContractColumns = []string{"name", "parentId"}

// RunRepositoryContract runs a suite of tests to verify that a Repository
// implementation adheres to the defined interface contract. The table must
// name an id field and a sort field; scopes are applied on "parentId".
func RunRepositoryContract(t *testing.T, repo Repository, table domain.Table) {
	ctx := context.Background()
	run := time.Now().Format("150405.000000")

	scoped := func(name string) domain.Table {
		st := table
		st.Scope = map[string]string{"parentId": run + "-" + name}
		return st
	}
	names := func(recs []domain.Record) []string {
		out := make([]string, 0, len(recs))
		for _, r := range recs {
			out = append(out, r["name"])
		}
		return out
	}
	seed := func(t *testing.T, tbl domain.Table, values ...string) []string {
		ids := make([]string, 0, len(values))
		for _, v := range values {
			id, err := repo.Insert(ctx, tbl, domain.Record{"name": v})
			require.NoError(t, err)
			require.NotEmpty(t, id)
			ids = append(ids, id)
		}
		return ids
	}

	t.Run("Insert and Get", func(t *testing.T) {
		tbl := scoped("get")
		id, err := repo.Insert(ctx, tbl, domain.Record{"name": "alpha"})
		require.NoError(t, err)

		rec, err := repo.Get(ctx, tbl, id)
		require.NoError(t, err)
		assert.Equal(t, "alpha", rec["name"])
		assert.Equal(t, id, rec[table.IDField])
		assert.Equal(t, tbl.Scope["parentId"], rec["parentId"], "scope must be stamped on insert")
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := repo.Get(ctx, scoped("missing"), "999999")
		assert.ErrorIs(t, err, domain.ErrRecordNotFound)
	})

	t.Run("Scope Isolation", func(t *testing.T) {
		a, b := scoped("iso-a"), scoped("iso-b")
		ids := seed(t, a, "inside")

		_, err := repo.Get(ctx, b, ids[0])
		assert.ErrorIs(t, err, domain.ErrRecordNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, b, ids[0]), domain.ErrRecordNotFound)

		recs, total, err := repo.List(ctx, b, domain.Query{})
		require.NoError(t, err)
		assert.Equal(t, 0, total)
		assert.Empty(t, recs)
	})

	t.Run("Update", func(t *testing.T) {
		tbl := scoped("update")
		ids := seed(t, tbl, "before")

		require.NoError(t, repo.Update(ctx, tbl, ids[0], domain.Record{"name": "after"}))
		rec, err := repo.Get(ctx, tbl, ids[0])
		require.NoError(t, err)
		assert.Equal(t, "after", rec["name"])
		assert.Equal(t, tbl.Scope["parentId"], rec["parentId"])

		err = repo.Update(ctx, tbl, "999999", domain.Record{"name": "x"})
		assert.ErrorIs(t, err, domain.ErrRecordNotFound)
	})

	t.Run("List Order and Paging", func(t *testing.T) {
		tbl := scoped("paging")
		seed(t, tbl, "r1", "r2", "r3", "r4", "r5")

		all, total, err := repo.List(ctx, tbl, domain.Query{})
		require.NoError(t, err)
		assert.Equal(t, 5, total)
		assert.Equal(t, []string{"r1", "r2", "r3", "r4", "r5"}, names(all))

		page, total, err := repo.List(ctx, tbl, domain.Query{Offset: 1, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, 5, total)
		assert.Equal(t, []string{"r2", "r3"}, names(page))

		tail, _, err := repo.List(ctx, tbl, domain.Query{Offset: 4, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, []string{"r5"}, names(tail))
	})

	t.Run("List Filters", func(t *testing.T) {
		tbl := scoped("filters")
		seed(t, tbl, "Apple pie", "banana", "PINEAPPLE")

		recs, total, err := repo.List(ctx, tbl, domain.Query{Filters: map[string]string{"name": "apple"}})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Equal(t, []string{"Apple pie", "PINEAPPLE"}, names(recs))
	})

	t.Run("Move", func(t *testing.T) {
		tbl := scoped("move")
		ids := seed(t, tbl, "a", "b", "c", "d")

		require.NoError(t, repo.Move(ctx, tbl, ids[3], ids[0], domain.Before))
		recs, _, err := repo.List(ctx, tbl, domain.Query{})
		require.NoError(t, err)
		assert.Equal(t, []string{"d", "a", "b", "c"}, names(recs))

		require.NoError(t, repo.Move(ctx, tbl, ids[0], ids[2], domain.After))
		recs, _, err = repo.List(ctx, tbl, domain.Query{})
		require.NoError(t, err)
		assert.Equal(t, []string{"d", "b", "c", "a"}, names(recs))

		for i, r := range recs {
			assert.Equal(t, fmt.Sprint(i+1), r[table.SortField], "sort field renumbered")
		}

		err = repo.Move(ctx, tbl, "999999", ids[1], domain.After)
		assert.ErrorIs(t, err, domain.ErrRecordNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		tbl := scoped("delete")
		ids := seed(t, tbl, "gone", "kept")

		require.NoError(t, repo.Delete(ctx, tbl, ids[0]))
		_, err := repo.Get(ctx, tbl, ids[0])
		assert.ErrorIs(t, err, domain.ErrRecordNotFound)

		recs, total, err := repo.List(ctx, tbl, domain.Query{})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, []string{"kept"}, names(recs))

		assert.ErrorIs(t, repo.Delete(ctx, tbl, ids[0]), domain.ErrRecordNotFound)
	})
}
