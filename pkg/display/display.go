// Package display renders grids as HTML and builds their forms.
package display

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"unicode"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/aretw0/lattice/pkg/status"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.New("display").Funcs(template.FuncMap{
	"checked": checked,
	"inputType": func(fieldType string) string {
		switch fieldType {
		case domain.FieldInteger, domain.FieldFloat:
			return "number"
		case domain.FieldEmail:
			return "email"
		}
		return "text"
	},
}).ParseFS(templatesFS, "templates/*.html"))

// Option configures a Display.
type Option func(*Display)

// WithSecurityToken sets the source of the hidden securityToken value of
// search forms.
func WithSecurityToken(token func() string) Option {
	return func(d *Display) {
		d.token = token
	}
}

// WithLanguage sets the language used to title-case default labels.
func WithLanguage(tag language.Tag) Option {
	return func(d *Display) {
		d.caser = cases.Title(tag)
	}
}

// Display implements ports.Display for one resolved grid level.
type Display struct {
	repo  ports.Repository
	sub   *domain.SubgridConfig
	token func() string
	caser cases.Caser
}

// New creates a display for the resolved level sub. The status is passed
// to FullHTML on each call.
func New(repo ports.Repository, sub *domain.SubgridConfig, opts ...Option) *Display {
	d := &Display{
		repo:  repo,
		sub:   sub,
		caser: cases.Title(language.English),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Factory returns a constructor suitable for the dispatcher.
func Factory(repo ports.Repository, opts ...Option) func(*domain.GridConfig, *domain.SubgridConfig, status.Status) ports.Display {
	return func(_ *domain.GridConfig, sub *domain.SubgridConfig, _ status.Status) ports.Display {
		return New(repo, sub, opts...)
	}
}

// Label returns the field label, or its name split into title-cased words.
func (d *Display) Label(f domain.Field) string {
	if f.Label != "" {
		return f.Label
	}
	return d.caser.String(splitWords(f.Field))
}

type crumb struct {
	Label   string
	Hash    string
	Current bool
}

type rowView struct {
	ID       string
	Params   string
	Cells    []string
	Subgrids []linkView
}

type linkView struct {
	Label  string
	Params string
}

type pageView struct {
	Number  int
	Current bool
	Params  string
}

type gridView struct {
	Title      string
	Depth      int
	Breadcrumb []crumb
	Search     template.HTML
	Columns    []string
	Rows       []rowView
	Pages      []pageView
	Total      int
	CanCreate  bool
	CanUpdate  bool
	CanDelete  bool
	CanSort    bool
	HasActions bool
	ColumnSpan int
}

// FullHTML renders the breadcrumb, search form, record table, pagination
// and create button of the level.
func (d *Display) FullHTML(ctx context.Context, st status.Status) (string, error) {
	cfg := d.sub.GridConfig
	size := cfg.RowsPerPage()
	page := currentPage(st.Value(d.sub.PageKey()))
	filters := d.activeFilters(st)

	table := d.sub.TableRef()
	recs, total, err := d.repo.List(ctx, table, domain.Query{Filters: filters, Offset: (page - 1) * size, Limit: size})
	if err != nil {
		return "", fmt.Errorf("list %s: %w", table, err)
	}
	pages := max(1, (total+size-1)/size)
	if page > pages {
		page = pages
		recs, total, err = d.repo.List(ctx, table, domain.Query{Filters: filters, Offset: (page - 1) * size, Limit: size})
		if err != nil {
			return "", fmt.Errorf("list %s: %w", table, err)
		}
	}

	view := gridView{
		Title:      cfg.Title,
		Depth:      d.sub.Depth,
		Breadcrumb: d.breadcrumb(st),
		Total:      total,
		CanCreate:  cfg.CanCreate(),
		CanUpdate:  cfg.CanUpdate(),
		CanDelete:  cfg.CanDelete(),
		CanSort:    cfg.CanSort(),
	}

	if cfg.CanSearch() {
		form, err := d.searchForm(filters)
		if err != nil {
			return "", err
		}
		html, err := form.Render()
		if err != nil {
			return "", err
		}
		view.Search = template.HTML(html)
	}

	var columns []domain.Field
	for _, f := range cfg.Fields {
		if f.Previewed() && f.InputType() != domain.FieldGrid {
			columns = append(columns, f)
			view.Columns = append(view.Columns, d.Label(f))
		}
	}
	children := cfg.Children()
	view.HasActions = view.CanUpdate || view.CanDelete || len(children) > 0
	view.ColumnSpan = len(columns)
	if view.CanSort {
		view.ColumnSpan++
	}
	if view.HasActions {
		view.ColumnSpan++
	}

	idField := cfg.IDFieldName()
	for _, rec := range recs {
		id := rec[idField]
		row := rowView{ID: id, Params: jsonParams("id", id)}
		for _, f := range columns {
			row.Cells = append(row.Cells, rec[f.Field])
		}
		for _, child := range children {
			row.Subgrids = append(row.Subgrids, linkView{
				Label:  d.Label(child),
				Params: jsonParams("gridId", child.Field, "gridParentId", id),
			})
		}
		view.Rows = append(view.Rows, row)
	}

	for n := 1; n <= pages; n++ {
		view.Pages = append(view.Pages, pageView{
			Number:  n,
			Current: n == page,
			Params:  jsonParams("page", strconv.Itoa(n)),
		})
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "grid", view); err != nil {
		return "", fmt.Errorf("render grid: %w", err)
	}
	return buf.String(), nil
}

// CreateForm returns an empty form of the editable fields.
func (d *Display) CreateForm(ctx context.Context) (ports.Form, error) {
	form, err := buildForm(FormCreate, d.editableFields(), nil, d.Label)
	if err != nil {
		return nil, err
	}
	return form, nil
}

// UpdateForm returns a form prefilled with the stored record.
func (d *Display) UpdateForm(ctx context.Context, id string) (ports.Form, error) {
	rec, err := d.repo.Get(ctx, d.sub.TableRef(), id)
	if err != nil {
		return nil, err
	}

	var fields []domain.Field
	for _, f := range d.sub.Fields {
		if f.InputType() != domain.FieldGrid && f.Field != d.sub.IDFieldName() {
			fields = append(fields, f)
		}
	}
	form, err := buildForm(FormUpdate, fields, rec, d.Label)
	if err != nil {
		return nil, err
	}
	form.addHidden(d.sub.IDFieldName(), id)
	return form, nil
}

// SearchForm returns the search form prefilled with defaults.
func (d *Display) SearchForm(ctx context.Context, defaults domain.Params) (ports.Form, error) {
	form, err := d.searchForm(defaults)
	if err != nil {
		return nil, err
	}
	return form, nil
}

func (d *Display) searchForm(defaults map[string]string) (*Form, error) {
	var fields []domain.Field
	for _, f := range d.sub.Fields {
		if f.Searchable {
			f.ReadOnly = false
			f.Default = ""
			fields = append(fields, f)
		}
	}
	form, err := buildForm(FormSearch, fields, defaults, d.Label)
	if err != nil {
		return nil, err
	}
	token := ""
	if d.token != nil {
		token = d.token()
	}
	form.addHidden(domain.ParamSecurityToken, token)
	form.addHidden(domain.ParamAntispam, "")
	return form, nil
}

func (d *Display) editableFields() []domain.Field {
	var out []domain.Field
	for _, f := range d.sub.Fields {
		if f.Editable() && f.Field != d.sub.IDFieldName() {
			out = append(out, f)
		}
	}
	return out
}

// activeFilters keeps the status filters naming searchable fields.
func (d *Display) activeFilters(st status.Status) map[string]string {
	filters := map[string]string{}
	for field, value := range status.Filters(st) {
		if f, ok := d.sub.FieldByName(field); ok && f.Searchable {
			filters[field] = value
		}
	}
	return filters
}

// breadcrumb links every ancestor level. Following a crumb truncates the
// status to that level.
func (d *Display) breadcrumb(st status.Status) []crumb {
	if d.sub.Depth == 0 {
		return nil
	}
	crumbs := make([]crumb, 0, d.sub.Depth+1)
	for level, anc := range d.sub.Chain {
		label := gridLabel(anc.Config)
		if anc.GridID != "" {
			label = d.caser.String(splitWords(anc.GridID))
		}
		crumbs = append(crumbs, crumb{
			Label: label,
			Hash:  status.Encode(status.Truncate(st, level)),
		})
	}
	crumbs = append(crumbs, crumb{
		Label:   d.caser.String(splitWords(d.sub.GridID)),
		Current: true,
	})
	return crumbs
}

func gridLabel(cfg *domain.GridConfig) string {
	switch {
	case cfg.Title != "":
		return cfg.Title
	case cfg.Name != "":
		return cfg.Name
	}
	return cfg.Table
}

func currentPage(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func jsonParams(kv ...string) string {
	m := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i]] = kv[i+1]
	}
	b, _ := json.Marshal(m)
	return string(b)
}

// splitWords turns "firstName" or "first_name" into "first name".
func splitWords(name string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range name {
		switch {
		case r == '_' || r == '-':
			b.WriteRune(' ')
			prevLower = false
			continue
		case unicode.IsUpper(r) && prevLower:
			b.WriteRune(' ')
		}
		b.WriteRune(r)
		prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
	}
	return strings.ToLower(b.String())
}
