package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/adapters/redis"
	"github.com/aretw0/lattice/pkg/adapters/sqlite"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/persistence/middleware"
	"github.com/aretw0/lattice/pkg/ports"
)

// openRepository connects the configured store and wraps it with the
// encryption and masking middleware. The returned close func is never nil.
func openRepository(ctx context.Context, s Settings, grids []*domain.GridConfig) (ports.Repository, func() error, error) {
	nop := func() error { return nil }

	var (
		repo    ports.Repository
		closeFn = nop
	)
	switch s.Store {
	case StoreRedis:
		r := redis.New(s.RedisAddr, s.RedisPassword, s.RedisDB, redis.WithPrefix(s.RedisPrefix))
		if err := r.Ping(ctx); err != nil {
			_ = r.Close()
			return nil, nop, fmt.Errorf("connect redis at %s: %w", s.RedisAddr, err)
		}
		repo, closeFn = r, r.Close
	case StoreSQLite:
		r, err := sqlite.Open(s.SQLiteDSN)
		if err != nil {
			return nil, nop, err
		}
		for _, spec := range tableColumns(grids) {
			if err := r.EnsureTable(ctx, spec.Table, spec.Columns); err != nil {
				_ = r.Close()
				return nil, nop, err
			}
		}
		repo, closeFn = r, r.Close
	default:
		repo = memory.New()
	}

	// Masking sees decrypted values, so it wraps encryption.
	var chain []middleware.Middleware
	if len(s.MaskedFields) > 0 {
		chain = append(chain, middleware.NewMaskMiddleware(s.MaskedFields))
	}
	if s.EncryptionKey != "" {
		cfg, err := encryptionConfig(s)
		if err != nil {
			_ = closeFn()
			return nil, nop, err
		}
		chain = append(chain, middleware.NewEncryptionMiddleware(cfg))
	}
	return middleware.Chain(repo, chain...), closeFn, nil
}

func encryptionConfig(s Settings) (middleware.EncryptionConfig, error) {
	active, err := middleware.ParseKey(s.EncryptionKey)
	if err != nil {
		return middleware.EncryptionConfig{}, fmt.Errorf("encryption key: %w", err)
	}
	cfg := middleware.EncryptionConfig{ActiveKey: active, Fields: s.EncryptedFields}
	for i, raw := range s.FallbackKeys {
		key, err := middleware.ParseKey(raw)
		if err != nil {
			return middleware.EncryptionConfig{}, fmt.Errorf("fallback key %d: %w", i, err)
		}
		cfg.FallbackKeys = append(cfg.FallbackKeys, key)
	}
	return cfg, nil
}

// tableSpec is the storage layout one table needs.
type tableSpec struct {
	Table   domain.Table
	Columns []string
}

// tableColumns lists the storage columns each grid level needs: its fields,
// plus the connection column of nested levels. Grids sharing a table merge
// their columns.
func tableColumns(grids []*domain.GridConfig) []tableSpec {
	var specs []tableSpec
	index := make(map[string]int)
	var walk func(cfg *domain.GridConfig)
	walk = func(cfg *domain.GridConfig) {
		i, ok := index[cfg.Table]
		if !ok {
			i = len(specs)
			index[cfg.Table] = i
			specs = append(specs, tableSpec{
				Table: domain.Table{Name: cfg.Table, IDField: cfg.IDFieldName(), SortField: cfg.SortField},
			})
		}
		add := func(col string) {
			if col != "" && !slices.Contains(specs[i].Columns, col) {
				specs[i].Columns = append(specs[i].Columns, col)
			}
		}
		add(cfg.ConnectionField)
		for _, f := range cfg.Fields {
			if f.InputType() != domain.FieldGrid {
				add(f.Field)
			}
		}
		for _, f := range cfg.Fields {
			if f.InputType() == domain.FieldGrid && f.Config != nil {
				walk(f.Config)
			}
		}
	}
	for _, cfg := range grids {
		walk(cfg)
	}
	return specs
}
