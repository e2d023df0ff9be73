package runtime_test

import (
	"context"
	"errors"
	"sync"

	"github.com/aretw0/lattice/internal/runtime"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/aretw0/lattice/pkg/status"
)

// spyActions records every collaborator call.
type spyActions struct {
	mu        sync.Mutex
	calls     []string
	deleteErr error
	createID  string
}

func (s *spyActions) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

func (s *spyActions) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *spyActions) Create(ctx context.Context, data domain.Record) (string, error) {
	s.record("create")
	return s.createID, nil
}

func (s *spyActions) Update(ctx context.Context, id string, data domain.Record) error {
	s.record("update:" + id)
	return nil
}

func (s *spyActions) Delete(ctx context.Context, id string) error {
	s.record("delete:" + id)
	return s.deleteErr
}

func (s *spyActions) Move(ctx context.Context, id, targetID string, pos domain.Position) error {
	s.record("move:" + id + ":" + targetID + ":" + string(pos))
	return nil
}

// spyForm validates with a fixed error map and passes values through.
type spyForm struct {
	errs map[string]string
}

func (f *spyForm) Validate(raw domain.Params) map[string]string {
	return f.errs
}

func (f *spyForm) FilterValues(raw domain.Params) domain.Record {
	out := domain.Record{}
	for k, v := range raw {
		out[k] = v
	}
	return out
}

// spyDisplay renders a fixed fragment and counts calls.
type spyDisplay struct {
	mu        sync.Mutex
	calls     []string
	html      string
	renderErr error
	form      *spyForm
	lastSub   *domain.SubgridConfig
}

func (d *spyDisplay) record(call string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, call)
}

func (d *spyDisplay) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

func (d *spyDisplay) FullHTML(ctx context.Context, st status.Status) (string, error) {
	d.record("fullHtml")
	return d.html, d.renderErr
}

func (d *spyDisplay) CreateForm(ctx context.Context) (ports.Form, error) {
	d.record("createForm")
	return d.form, nil
}

func (d *spyDisplay) UpdateForm(ctx context.Context, id string) (ports.Form, error) {
	d.record("updateForm:" + id)
	if id == "missing" {
		return nil, domain.ErrRecordNotFound
	}
	return d.form, nil
}

func (d *spyDisplay) SearchForm(ctx context.Context, defaults domain.Params) (ports.Form, error) {
	d.record("searchForm")
	return d.form, nil
}

type fixture struct {
	root    *domain.GridConfig
	actions *spyActions
	display *spyDisplay
	engine  *runtime.Engine
	events  []*domain.DispatchEvent
}

func newFixture(opts ...runtime.EngineOption) *fixture {
	f := &fixture{
		root: &domain.GridConfig{
			Name:  "people",
			Table: "people",
			Fields: []domain.Field{
				{Field: "name", Searchable: true},
				{Field: "pets", Type: domain.FieldGrid, Config: &domain.GridConfig{
					Table:           "pets",
					ConnectionField: "ownerId",
					Fields: []domain.Field{
						{Field: "petName"},
						{Field: "toys", Type: domain.FieldGrid, Config: &domain.GridConfig{Table: "toys", ConnectionField: "petId"}},
					},
				}},
			},
		},
		actions: &spyActions{createID: "42"},
		display: &spyDisplay{html: "<table></table>", form: &spyForm{}},
	}
	hooks := domain.LifecycleHooks{
		OnComplete: func(ctx context.Context, e *domain.DispatchEvent) {
			f.events = append(f.events, e)
		},
	}
	opts = append([]runtime.EngineOption{runtime.WithLifecycleHooks(hooks)}, opts...)
	f.engine = runtime.NewEngine(f.root,
		func(sub *domain.SubgridConfig) ports.Actions { return f.actions },
		func(root *domain.GridConfig, sub *domain.SubgridConfig, st status.Status) ports.Display {
			f.display.lastSub = sub
			return f.display
		},
		opts...,
	)
	return f
}

func (f *fixture) lastOutcome() domain.Outcome {
	if len(f.events) == 0 {
		return ""
	}
	return f.events[len(f.events)-1].Outcome
}

var errBoom = errors.New("boom")
