package runtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/aretw0/lattice/pkg/schema"
	"github.com/aretw0/lattice/pkg/status"
)

// ActionsFactory builds the commit collaborator for a resolved grid level.
type ActionsFactory func(sub *domain.SubgridConfig) ports.Actions

// DisplayFactory builds the render collaborator for a resolved grid level.
type DisplayFactory func(root *domain.GridConfig, sub *domain.SubgridConfig, st status.Status) ports.Display

// Engine routes grid calls for one root grid. It holds no per-request
// state: everything a call needs is decoded from the request hash.
type Engine struct {
	name    string
	root    *domain.GridConfig
	actions ActionsFactory
	display DisplayFactory
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithName sets the grid name reported in events and logs.
// Defaults to the root config name.
func WithName(name string) EngineOption {
	return func(e *Engine) {
		e.name = name
	}
}

// NewEngine creates a dispatcher for root.
func NewEngine(root *domain.GridConfig, actions ActionsFactory, display DisplayFactory, opts ...EngineOption) *Engine {
	e := &Engine{
		name:    root.Name,
		root:    root,
		actions: actions,
		display: display,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("grid", e.name)
	return e
}

// Root returns the root grid configuration.
func (e *Engine) Root() *domain.GridConfig {
	return e.root
}

// Dispatch handles one grid call. Validation failures and prevented calls
// are normal responses; bad requests, configuration mismatches and
// persistence faults are returned as errors.
func (e *Engine) Dispatch(ctx context.Context, req domain.Request) (resp *domain.Response, err error) {
	st := status.Decode(req.Hash)
	c := &call{
		engine: e,
		req:    req,
		st:     st,
		event: &domain.DispatchEvent{
			Timestamp: time.Now(),
			Grid:      e.name,
			Method:    req.Method,
			Depth:     status.Depth(st),
		},
	}

	e.emitDispatch(ctx, c.event)
	defer func() {
		e.emitComplete(ctx, c.event, resp, err)
	}()

	sub, err := e.root.Resolve(st)
	if err != nil {
		return nil, err
	}
	c.sub = sub

	if req.Method == "" {
		return nil, domain.BadRequest("missing method")
	}
	method := domain.ParseMethod(req.Method)
	if method.Mutating() && req.Transport != domain.TransportWrite {
		return nil, domain.MethodNotAllowed(method)
	}

	params := req.ParamsFor(method)
	if err := schema.SanitizeAll(params, schema.DefaultMaxValueSize); err != nil {
		return nil, domain.BadRequest("%v", err)
	}
	if p := c.preventAction(ctx, domain.Method(req.Method), params); !p.Empty() {
		c.event.Outcome = domain.OutcomePrevented
		e.logger.InfoContext(ctx, "call prevented", "method", req.Method)
		return domain.CommandList(p.Response()...), nil
	}
	c.params = params.Without(domain.ParamMethod, domain.ParamAction)

	switch method {
	case domain.MethodInit:
		return c.init(ctx)
	case domain.MethodPage:
		return c.page()
	case domain.MethodDelete:
		return c.delete(ctx)
	case domain.MethodUpdateForm:
		return c.updateForm(ctx)
	case domain.MethodUpdate:
		return c.update(ctx)
	case domain.MethodCreate:
		return c.create(ctx)
	case domain.MethodMove:
		return c.move(ctx)
	case domain.MethodSearch:
		return c.search(ctx)
	case domain.MethodSubgrid:
		return c.subgrid()
	}

	c.event.Outcome = domain.OutcomeNoop
	e.logger.DebugContext(ctx, "unknown method", "method", req.Method)
	return domain.EmptyResponse(), nil
}

// call carries the decoded state of one dispatch.
type call struct {
	engine *Engine
	req    domain.Request
	st     status.Status
	sub    *domain.SubgridConfig
	params domain.Params
	event  *domain.DispatchEvent
}

func (c *call) actions() ports.Actions {
	return c.engine.actions(c.sub)
}

func (c *call) display() ports.Display {
	return c.engine.display(c.engine.root, c.sub, c.st)
}
