package runtime

import (
	"context"
	"errors"
	"time"

	"github.com/aretw0/lattice/pkg/domain"
)

// Grid hooks. Absent hooks are skipped; hooks get a copy of the data so
// they cannot change what is committed.

func (c *call) preventAction(ctx context.Context, method domain.Method, params domain.Params) *domain.Prevention {
	if h := c.sub.Hooks.PreventAction; h != nil {
		return h(ctx, method, params.Clone(), c.st)
	}
	return nil
}

func (c *call) beforeCreate(ctx context.Context, data domain.Record) {
	if h := c.sub.Hooks.BeforeCreate; h != nil {
		h(ctx, data.Clone())
	}
}

func (c *call) afterCreate(ctx context.Context, id string, data domain.Record) {
	if h := c.sub.Hooks.AfterCreate; h != nil {
		h(ctx, id, data.Clone())
	}
}

func (c *call) beforeUpdate(ctx context.Context, id string, data domain.Record) {
	if h := c.sub.Hooks.BeforeUpdate; h != nil {
		h(ctx, id, data.Clone())
	}
}

func (c *call) afterUpdate(ctx context.Context, id string, data domain.Record) {
	if h := c.sub.Hooks.AfterUpdate; h != nil {
		h(ctx, id, data.Clone())
	}
}

func (c *call) beforeDelete(ctx context.Context, id string) {
	if h := c.sub.Hooks.BeforeDelete; h != nil {
		h(ctx, id)
	}
}

func (c *call) afterDelete(ctx context.Context, id string) {
	if h := c.sub.Hooks.AfterDelete; h != nil {
		h(ctx, id)
	}
}

func (c *call) beforeMove(ctx context.Context, id string) {
	if h := c.sub.Hooks.BeforeMove; h != nil {
		h(ctx, id)
	}
}

func (c *call) afterMove(ctx context.Context, id string) {
	if h := c.sub.Hooks.AfterMove; h != nil {
		h(ctx, id)
	}
}

// Lifecycle hooks.

func (e *Engine) emitDispatch(ctx context.Context, event *domain.DispatchEvent) {
	e.logger.DebugContext(ctx, "dispatch", "method", event.Method, "depth", event.Depth)
	if e.hooks.OnDispatch != nil {
		e.hooks.OnDispatch(ctx, event)
	}
}

func (e *Engine) emitComplete(ctx context.Context, event *domain.DispatchEvent, resp *domain.Response, err error) {
	event.Duration = time.Since(event.Timestamp)
	if err != nil {
		event.Outcome = domain.OutcomeError
		event.Err = err
		level := e.logger.WarnContext
		if !errors.Is(err, domain.ErrBadRequest) && !errors.Is(err, domain.ErrConfiguration) {
			level = e.logger.ErrorContext
		}
		level(ctx, "dispatch failed", "method", event.Method, "err", err)
	} else if event.Outcome == "" && resp != nil {
		event.Outcome = domain.OutcomeOK
	}
	if e.hooks.OnComplete != nil {
		e.hooks.OnComplete(ctx, event)
	}
}
