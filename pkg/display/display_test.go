package display_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/display"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func peopleConfig() *domain.GridConfig {
	return &domain.GridConfig{
		Name:      "people",
		Title:     "People",
		Table:     "people",
		SortField: "position",
		PageSize:  5,
		Fields: []domain.Field{
			{Field: "name", Validators: []string{"required"}, Searchable: true},
			{Field: "age", Type: domain.FieldInteger},
			{Field: "active", Type: domain.FieldCheckbox, Default: "1"},
			{Field: "createdAt", ReadOnly: true},
			{Field: "pets", Type: domain.FieldGrid, Config: &domain.GridConfig{
				Title:           "Pets",
				Table:           "pets",
				ConnectionField: "ownerId",
				Fields:          []domain.Field{{Field: "petName"}},
			}},
		},
	}
}

func resolve(t *testing.T, cfg *domain.GridConfig, st status.Status) *domain.SubgridConfig {
	t.Helper()
	sub, err := cfg.Resolve(st)
	require.NoError(t, err)
	return sub
}

func seedPeople(repo *memory.Repository, n int) {
	table := domain.Table{Name: "people", IDField: "id"}
	for i := 1; i <= n; i++ {
		repo.Seed(table, domain.Record{
			"id":       fmt.Sprintf("%d", i),
			"name":     fmt.Sprintf("p%02d", i),
			"position": fmt.Sprintf("%d", i),
		})
	}
}

func TestFullHTML_Pages(t *testing.T) {
	repo := memory.New()
	seedPeople(repo, 12)
	cfg := peopleConfig()
	ctx := context.Background()

	st := status.FromPairs("page", "3")
	d := display.New(repo, resolve(t, cfg, st))

	html, err := d.FullHTML(ctx, st)
	require.NoError(t, err)
	assert.Contains(t, html, "p11")
	assert.Contains(t, html, "p12")
	assert.NotContains(t, html, "p01")
	assert.Contains(t, html, `class="lattice-pages"`)
	assert.Contains(t, html, "<span>3</span>")

	t.Run("Clamps Past The Last Page", func(t *testing.T) {
		clamped, err := d.FullHTML(ctx, status.FromPairs("page", "9"))
		require.NoError(t, err)
		assert.Equal(t, html, clamped)
	})

	t.Run("Ignores Invalid Page", func(t *testing.T) {
		first, err := d.FullHTML(ctx, status.FromPairs("page", "-2"))
		require.NoError(t, err)
		assert.Contains(t, first, "p01")
		assert.NotContains(t, first, "p06")
	})
}

func TestFullHTML_Empty(t *testing.T) {
	cfg := peopleConfig()
	d := display.New(memory.New(), resolve(t, cfg, status.Status{}))

	html, err := d.FullHTML(context.Background(), status.Status{})
	require.NoError(t, err)
	assert.Contains(t, html, "No records")
	assert.NotContains(t, html, "lattice-pages")
	assert.Contains(t, html, `data-method="createForm"`)
}

func TestFullHTML_Columns(t *testing.T) {
	repo := memory.New()
	seedPeople(repo, 1)
	cfg := peopleConfig()
	hidden := false
	cfg.Fields[1].Preview = &hidden
	no := false
	cfg.AllowDelete = &no

	d := display.New(repo, resolve(t, cfg, status.Status{}))
	html, err := d.FullHTML(context.Background(), status.Status{})
	require.NoError(t, err)

	assert.Contains(t, html, "<th>Name</th>")
	assert.Contains(t, html, "<th>Created At</th>")
	assert.NotContains(t, html, "<th>Age</th>")
	assert.NotContains(t, html, "<th>Pets</th>")
	assert.Contains(t, html, `data-method="subgrid"`)
	assert.Contains(t, html, `data-method="updateForm"`)
	assert.NotContains(t, html, `data-method="delete"`)
	assert.Contains(t, html, "lattice-drag")
}

func TestFullHTML_Search(t *testing.T) {
	repo := memory.New()
	seedPeople(repo, 12)
	cfg := peopleConfig()
	ctx := context.Background()

	st := status.FromPairs("s_name", "P1", "s_age", "3")
	d := display.New(repo, resolve(t, cfg, st), display.WithSecurityToken(func() string { return "tok" }))

	html, err := d.FullHTML(ctx, st)
	require.NoError(t, err)
	assert.Contains(t, html, "p10")
	assert.Contains(t, html, "p12")
	assert.NotContains(t, html, "p09")
	assert.Contains(t, html, `name="securityToken" value="tok"`)
	assert.Contains(t, html, `name="antispam" value=""`)
	assert.Contains(t, html, `name="name" value="P1"`)

	t.Run("Disabled", func(t *testing.T) {
		no := false
		cfg.AllowSearch = &no
		d := display.New(repo, resolve(t, cfg, st))
		html, err := d.FullHTML(ctx, st)
		require.NoError(t, err)
		assert.NotContains(t, html, "lattice-search")
	})
}

func TestFullHTML_Subgrid(t *testing.T) {
	repo := memory.New()
	pets := domain.Table{Name: "pets", IDField: "id"}
	repo.Seed(pets,
		domain.Record{"petName": "Rex", "ownerId": "1"},
		domain.Record{"petName": "Tom", "ownerId": "2"},
	)
	cfg := peopleConfig()
	st := status.FromPairs("page", "2", "gridId1", "pets", "gridParentId1", "1")

	sub := resolve(t, cfg, st)
	require.Equal(t, 1, sub.Depth)

	html, err := display.New(repo, sub).FullHTML(context.Background(), st)
	require.NoError(t, err)
	assert.Contains(t, html, "Rex")
	assert.NotContains(t, html, "Tom")
	assert.Contains(t, html, `data-depth="1"`)
	assert.Contains(t, html, `<a href="#" data-hash="">People</a>`)
	assert.Contains(t, html, "<span>Pets</span>")
	assert.NotContains(t, html, "lattice-drag")
}

func TestForms(t *testing.T) {
	repo := memory.New()
	repo.Seed(domain.Table{Name: "people", IDField: "id"}, domain.Record{"id": "7", "name": "Ann", "age": "30", "active": "0"})
	cfg := peopleConfig()
	d := display.New(repo, resolve(t, cfg, status.Status{}))
	ctx := context.Background()

	t.Run("Create", func(t *testing.T) {
		form, err := d.CreateForm(ctx)
		require.NoError(t, err)
		f := form.(*display.Form)

		_, ok := f.Field("createdAt")
		assert.False(t, ok)
		_, ok = f.Field("pets")
		assert.False(t, ok)
		active, ok := f.Field("active")
		require.True(t, ok)
		assert.Equal(t, "1", active.Value)

		errs := form.Validate(domain.Params{"name": " ", "age": "x"})
		assert.Equal(t, map[string]string{"name": "is required", "age": "must be a whole number"}, errs)
		assert.Empty(t, form.Validate(domain.Params{"name": "Bob", "age": "4"}))

		values := form.FilterValues(domain.Params{"name": " Bob ", "age": "4", "createdAt": "now", "extra": "x"})
		assert.Equal(t, domain.Record{"name": "Bob", "age": "4", "active": "0"}, values)
	})

	t.Run("Update", func(t *testing.T) {
		form, err := d.UpdateForm(ctx, "7")
		require.NoError(t, err)
		f := form.(*display.Form)

		name, _ := f.Field("name")
		assert.Equal(t, "Ann", name.Value)
		createdAt, ok := f.Field("createdAt")
		require.True(t, ok)
		assert.True(t, createdAt.ReadOnly)
		id, ok := f.Field("id")
		require.True(t, ok)
		assert.True(t, id.Hidden)
		assert.Equal(t, "7", id.Value)

		_, err = d.UpdateForm(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrRecordNotFound)
	})

	t.Run("Search", func(t *testing.T) {
		form, err := d.SearchForm(ctx, domain.Params{"name": "an"})
		require.NoError(t, err)
		f := form.(*display.Form)

		name, _ := f.Field("name")
		assert.Equal(t, "an", name.Value)
		assert.Empty(t, form.Validate(domain.Params{"name": ""}))
		assert.Equal(t, map[string]string{"antispam": "spam detected"}, form.Validate(domain.Params{"antispam": "bot"}))
	})
}

func TestForm_JSONDescriptor(t *testing.T) {
	cfg := peopleConfig()
	d := display.New(memory.New(), resolve(t, cfg, status.Status{}))

	form, err := d.CreateForm(context.Background())
	require.NoError(t, err)

	raw, err := json.Marshal(form)
	require.NoError(t, err)

	var desc struct {
		Method string              `json:"method"`
		Fields []display.FormField `json:"fields"`
		HTML   string              `json:"html"`
	}
	require.NoError(t, json.Unmarshal(raw, &desc))
	assert.Equal(t, display.FormCreate, desc.Method)
	assert.Len(t, desc.Fields, 3)
	assert.Equal(t, []string{"integer"}, desc.Fields[1].Rules)
	assert.Contains(t, desc.HTML, `<input type="number" name="age" value="">`)
	assert.Contains(t, desc.HTML, `<input type="checkbox" name="active" value="1" checked>`)
	assert.Contains(t, desc.HTML, "Create</button>")
}

func TestForm_SearchCheckbox(t *testing.T) {
	cfg := peopleConfig()
	cfg.Fields[2].Searchable = true
	d := display.New(memory.New(), resolve(t, cfg, status.Status{}))

	form, err := d.SearchForm(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, domain.Record{"name": "", "active": ""}, form.FilterValues(domain.Params{}))
	assert.Equal(t, domain.Record{"name": "", "active": "1"}, form.FilterValues(domain.Params{"active": "on"}))
}

func TestLabel(t *testing.T) {
	d := display.New(memory.New(), &domain.SubgridConfig{GridConfig: &domain.GridConfig{}})

	assert.Equal(t, "First Name", d.Label(domain.Field{Field: "firstName"}))
	assert.Equal(t, "First Name", d.Label(domain.Field{Field: "first_name"}))
	assert.Equal(t, "Zip", d.Label(domain.Field{Field: "zip"}))
	assert.Equal(t, "Given name", d.Label(domain.Field{Field: "firstName", Label: "Given name"}))
}
