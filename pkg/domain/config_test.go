package domain_test

import (
	"errors"
	"testing"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nestedConfig() *domain.GridConfig {
	return &domain.GridConfig{
		Name:  "authors",
		Table: "authors",
		Fields: []domain.Field{
			{Field: "name", Searchable: true},
			{Field: "bio", Type: domain.FieldTextarea},
			{Field: "books", Type: domain.FieldGrid, Config: &domain.GridConfig{
				Table:           "books",
				ConnectionField: "authorId",
				SortField:       "position",
				Fields: []domain.Field{
					{Field: "title"},
					{Field: "chapters", Type: domain.FieldGrid, Config: &domain.GridConfig{
						Table:            "chapters",
						ConnectionField:  "bookId",
						PageVariableName: "chapterPage",
						Fields:           []domain.Field{{Field: "heading"}},
					}},
				},
			}},
			{Field: "broken", Type: domain.FieldGrid},
		},
	}
}

func TestResolve_Root(t *testing.T) {
	cfg := nestedConfig()
	sub, err := cfg.Resolve(status.Status{})
	require.NoError(t, err)

	assert.Same(t, cfg, sub.GridConfig)
	assert.Equal(t, 0, sub.Depth)
	assert.Empty(t, sub.Chain)
	assert.Equal(t, "page", sub.PageKey())
	assert.Equal(t, domain.Table{Name: "authors", IDField: "id"}, sub.TableRef())
}

func TestResolve_Nested(t *testing.T) {
	cfg := nestedConfig()
	st := status.FromPairs(
		"gridId1", "books", "gridParentId1", "7",
		"gridId2", "chapters", "gridParentId2", "42",
	)

	sub, err := cfg.Resolve(st)
	require.NoError(t, err)

	assert.Equal(t, "chapters", sub.Table)
	assert.Equal(t, 2, sub.Depth)
	assert.Equal(t, "42", sub.ParentID)
	assert.Equal(t, "chapterPage", sub.PageKey())
	require.Len(t, sub.Chain, 2)
	assert.Equal(t, "authors", sub.Chain[0].Config.Table)
	assert.Equal(t, "7", sub.Chain[0].ParentID)
	assert.Equal(t, "books", sub.Chain[1].GridID)
	assert.Equal(t, map[string]string{"bookId": "42"}, sub.TableRef().Scope)
}

func TestResolve_PageKeyPerLevel(t *testing.T) {
	sub, err := nestedConfig().Resolve(status.FromPairs("gridId1", "books", "gridParentId1", "7"))
	require.NoError(t, err)
	assert.Equal(t, "page1", sub.PageKey())
	assert.True(t, sub.CanSort())
}

func TestResolve_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name   string
		st     status.Status
		level  int
		gridID string
	}{
		{"unknown field", status.FromPairs("gridId1", "nope", "gridParentId1", "1"), 1, "nope"},
		{"not a grid", status.FromPairs("gridId1", "name", "gridParentId1", "1"), 1, "name"},
		{"grid without config", status.FromPairs("gridId1", "broken", "gridParentId1", "1"), 1, "broken"},
		{"bad second level", status.FromPairs(
			"gridId1", "books", "gridParentId1", "1",
			"gridId2", "authors", "gridParentId2", "2",
		), 2, "authors"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, err := nestedConfig().Resolve(tt.st)
			assert.Nil(t, sub)
			require.ErrorIs(t, err, domain.ErrConfiguration)

			var cfgErr *domain.ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.level, cfgErr.Level)
			assert.Equal(t, tt.gridID, cfgErr.GridID)
		})
	}
}

func TestGridConfig_Defaults(t *testing.T) {
	no := false
	cfg := &domain.GridConfig{AllowDelete: &no, Fields: []domain.Field{{Field: "a"}}}

	assert.Equal(t, "id", cfg.IDFieldName())
	assert.Equal(t, 10, cfg.RowsPerPage())
	assert.True(t, cfg.CanCreate())
	assert.True(t, cfg.CanUpdate())
	assert.False(t, cfg.CanDelete())
	assert.False(t, cfg.CanSearch(), "no searchable field")
	assert.False(t, cfg.CanSort())
}

func TestField_Flags(t *testing.T) {
	hidden := false
	assert.True(t, domain.Field{Field: "a"}.Previewed())
	assert.False(t, domain.Field{Field: "a", Preview: &hidden}.Previewed())
	assert.Equal(t, "text", domain.Field{}.InputType())
	assert.False(t, domain.Field{Type: domain.FieldGrid}.Editable())
	assert.False(t, domain.Field{ReadOnly: true}.Editable())
}
