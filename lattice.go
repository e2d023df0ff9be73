package lattice

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/internal/runtime"
	"github.com/aretw0/lattice/internal/validator"
	"github.com/aretw0/lattice/pkg/actions"
	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/display"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/loader"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/aretw0/lattice/pkg/registry"
	"github.com/aretw0/lattice/pkg/status"
)

// DisplayFactory builds the render collaborator of a resolved grid level.
type DisplayFactory = func(root *domain.GridConfig, sub *domain.SubgridConfig, st status.Status) ports.Display

// ActionsFactory builds the commit collaborator of a resolved grid level.
type ActionsFactory = func(sub *domain.SubgridConfig) ports.Actions

// TokenIssuer signs the securityToken embedded in rendered search forms.
type TokenIssuer interface {
	Issue(grid string) (string, error)
}

// Engine is the high-level entry point for the Lattice library.
// It keeps a set of named root grids and routes each call to the
// dispatcher of its grid.
type Engine struct {
	registry    *registry.Registry
	repo        ports.Repository
	actions     ActionsFactory
	display     func(grid string) DisplayFactory
	displayOpts []display.Option
	tokens      TokenIssuer
	hooks       domain.LifecycleHooks
	logger      *slog.Logger

	mu      sync.RWMutex
	engines map[string]*runtime.Engine
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithRepository sets the storage backend shared by every grid.
// Defaults to an in-memory repository.
func WithRepository(repo ports.Repository) Option {
	return func(e *Engine) {
		e.repo = repo
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithTokenIssuer embeds a signed securityToken in every search form.
func WithTokenIssuer(t TokenIssuer) Option {
	return func(e *Engine) {
		e.tokens = t
	}
}

// WithDisplayOptions configures the default HTML display.
func WithDisplayOptions(opts ...display.Option) Option {
	return func(e *Engine) {
		e.displayOpts = append(e.displayOpts, opts...)
	}
}

// WithDisplay replaces the default HTML display.
func WithDisplay(f DisplayFactory) Option {
	return func(e *Engine) {
		e.display = func(string) DisplayFactory { return f }
	}
}

// WithActions replaces the default repository-backed actions.
func WithActions(f ActionsFactory) Option {
	return func(e *Engine) {
		e.actions = f
	}
}

// New initializes a new Lattice Engine with no grids.
func New(opts ...Option) *Engine {
	e := &Engine{
		registry: registry.NewRegistry(),
		engines:  make(map[string]*runtime.Engine),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.repo == nil {
		e.repo = memory.New()
	}
	if e.actions == nil {
		e.actions = actions.Factory(e.repo)
	}
	if e.display == nil {
		e.display = e.defaultDisplay
	}
	return e
}

func (e *Engine) defaultDisplay(grid string) DisplayFactory {
	opts := e.displayOpts
	if e.tokens != nil {
		opts = append(opts[:len(opts):len(opts)], display.WithSecurityToken(func() string {
			tok, err := e.tokens.Issue(grid)
			if err != nil {
				e.logger.Error("token issue failed", "grid", grid, "err", err)
				return ""
			}
			return tok
		}))
	}
	return display.Factory(e.repo, opts...)
}

// Register validates cfg and serves it under cfg.Name, replacing any grid
// with the same name.
func (e *Engine) Register(cfg *domain.GridConfig) error {
	if err := validator.ValidateGrids([]*domain.GridConfig{cfg}); err != nil {
		return err
	}
	if err := e.registry.Register(cfg.Name, cfg); err != nil {
		return err
	}

	eng := runtime.NewEngine(cfg, e.actions, e.display(cfg.Name),
		runtime.WithName(cfg.Name),
		runtime.WithLogger(e.logger),
		runtime.WithLifecycleHooks(e.hooks),
	)

	e.mu.Lock()
	e.engines[cfg.Name] = eng
	e.mu.Unlock()

	e.logger.Debug("grid registered", "grid", cfg.Name, "table", cfg.Table)
	return nil
}

// Load registers every grid defined in the YAML or JSON file at path.
// Nothing is registered when any definition is invalid.
func (e *Engine) Load(path string) error {
	grids, err := loader.Load(path)
	if err != nil {
		return err
	}
	if err := validator.ValidateGrids(grids); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	for _, cfg := range grids {
		if err := e.Register(cfg); err != nil {
			return err
		}
	}
	return nil
}

// Dispatch routes one call to the named grid.
// Returns domain.ErrGridNotFound for unknown names.
func (e *Engine) Dispatch(ctx context.Context, grid string, req domain.Request) (*domain.Response, error) {
	e.mu.RLock()
	eng, ok := e.engines[grid]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrGridNotFound, grid)
	}
	return eng.Dispatch(ctx, req)
}

// Grids returns the registered grid names, sorted.
func (e *Engine) Grids() []string {
	return e.registry.Names()
}

// Config returns the root configuration of a grid.
func (e *Engine) Config(grid string) (*domain.GridConfig, error) {
	return e.registry.Get(grid)
}

// Repository returns the storage backend shared by every grid.
func (e *Engine) Repository() ports.Repository {
	return e.repo
}
