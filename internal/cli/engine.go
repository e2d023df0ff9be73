package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/internal/validator"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/loader"
	"github.com/aretw0/lattice/pkg/observability"
	"github.com/aretw0/lattice/pkg/token"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Runtime is an engine wired to its store, ready to be served.
type Runtime struct {
	Engine   *lattice.Engine
	Tokens   *token.Issuer
	Registry *prometheus.Registry
	Close    func() error
}

// loadGrids reads and validates the grid definition file.
func loadGrids(path string) ([]*domain.GridConfig, error) {
	grids, err := loader.Load(path)
	if err != nil {
		return nil, err
	}
	if err := validator.ValidateGrids(grids); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return grids, nil
}

// createEngine initializes an engine with standard CLI conventions:
// store from settings, call logging, prometheus metrics and, when a secret
// is set, signed security tokens.
func createEngine(ctx context.Context, s Settings, logger *slog.Logger) (*Runtime, error) {
	grids, err := loadGrids(s.Grids)
	if err != nil {
		return nil, err
	}

	repo, closeRepo, err := openRepository(ctx, s, grids)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	metrics, err := observability.NewMetrics(reg)
	if err != nil {
		_ = closeRepo()
		return nil, err
	}

	engineOpts := []lattice.Option{
		lattice.WithRepository(repo),
		lattice.WithLogger(logger),
		lattice.WithLifecycleHooks(observability.Combine(
			metrics.Hooks(),
			observability.LoggingHooks(logger),
		)),
	}

	var issuer *token.Issuer
	if s.TokenSecret != "" {
		issuer, err = token.NewIssuer([]byte(s.TokenSecret))
		if err != nil {
			_ = closeRepo()
			return nil, err
		}
		engineOpts = append(engineOpts, lattice.WithTokenIssuer(issuer))
	}

	engine := lattice.New(engineOpts...)
	for _, cfg := range grids {
		if err := engine.Register(cfg); err != nil {
			_ = closeRepo()
			return nil, err
		}
	}
	logger.Info("grids loaded", "path", s.Grids, "grids", engine.Grids(), "store", s.Store)

	return &Runtime{
		Engine:   engine,
		Tokens:   issuer,
		Registry: reg,
		Close:    closeRepo,
	}, nil
}
