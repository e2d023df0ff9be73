package runtime

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/status"
	"github.com/mitchellh/mapstructure"
)

// Messages shown when a delete is recovered.
const (
	DeleteFailedMessage = "The record could not be deleted."
	RecordGoneMessage   = "The record no longer exists."
)

type idParams struct {
	ID string `mapstructure:"id"`
}

type pageParams struct {
	Page string `mapstructure:"page"`
}

type moveParams struct {
	ID            string `mapstructure:"id"`
	TargetID      string `mapstructure:"targetId"`
	BeforeOrAfter string `mapstructure:"beforeOrAfter"`
}

type subgridParams struct {
	GridID       string `mapstructure:"gridId"`
	GridParentID string `mapstructure:"gridParentId"`
}

// decodeParams copies the known keys of params into out. Unknown keys are
// ignored.
func decodeParams(params domain.Params, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(map[string]string(params)); err != nil {
		return domain.BadRequest("invalid parameters: %v", err)
	}
	return nil
}

// requireParams fails on the first empty name/value pair.
func requireParams(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			return domain.BadRequest("missing parameter %q", pairs[i])
		}
	}
	return nil
}

func (c *call) init(ctx context.Context) (*domain.Response, error) {
	html, err := c.display().FullHTML(ctx, c.st)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	c.event.Outcome = domain.OutcomeOK
	return domain.CommandList(domain.SetHTML(html)), nil
}

func (c *call) page() (*domain.Response, error) {
	var p pageParams
	if err := decodeParams(c.params, &p); err != nil {
		return nil, err
	}
	if err := requireParams("page", p.Page); err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(p.Page)
	if err != nil || n < 1 {
		return nil, domain.BadRequest("page must be a positive integer, got %q", p.Page)
	}

	// Stored canonical ("03" is written as "3"), not as sent.
	next := c.st.With(c.sub.PageKey(), strconv.Itoa(n))
	c.event.Outcome = domain.OutcomeOK
	return domain.CommandList(domain.SetHash(status.Encode(next))), nil
}

// delete never fails on a commit or render fault: the fault becomes a
// message.
func (c *call) delete(ctx context.Context) (*domain.Response, error) {
	var p idParams
	if err := decodeParams(c.params, &p); err != nil {
		return nil, err
	}
	if err := requireParams("id", p.ID); err != nil {
		return nil, err
	}

	c.beforeDelete(ctx, p.ID)

	resp, err := c.commitDelete(ctx, p.ID)
	if err == nil {
		c.event.Outcome = domain.OutcomeOK
		return resp, nil
	}
	resp = c.recovered(ctx, p.ID, err)

	// afterDelete follows a recovered failure only: a successful delete has
	// already returned above. This is the established hook order of the
	// grid widget; hook code written for it expects exactly this.
	c.afterDelete(ctx, p.ID)
	return resp, nil
}

func (c *call) commitDelete(ctx context.Context, id string) (*domain.Response, error) {
	if err := c.actions().Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("delete: %w", err)
	}
	html, err := c.display().FullHTML(ctx, c.st)
	if err != nil {
		return nil, fmt.Errorf("render after delete: %w", err)
	}
	return domain.CommandList(domain.SetHTML(html)), nil
}

func (c *call) recovered(ctx context.Context, id string, err error) *domain.Response {
	c.engine.logger.WarnContext(ctx, "delete recovered", "id", id, "err", err)
	c.event.Outcome = domain.OutcomeRecovered
	c.event.Err = err
	return domain.CommandList(domain.ShowMessage(deleteMessage(err)))
}

// deleteMessage picks the text shown for a failed delete. Raw errors are
// never shown.
func deleteMessage(err error) string {
	if msg, ok := domain.UserMessage(err); ok {
		return msg
	}
	if errors.Is(err, domain.ErrRecordNotFound) {
		return RecordGoneMessage
	}
	return DeleteFailedMessage
}

func (c *call) updateForm(ctx context.Context) (*domain.Response, error) {
	var p idParams
	if err := decodeParams(c.params, &p); err != nil {
		return nil, err
	}
	if err := requireParams("id", p.ID); err != nil {
		return nil, err
	}

	form, err := c.display().UpdateForm(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("update form %s: %w", p.ID, err)
	}
	c.event.Outcome = domain.OutcomeOK
	return domain.FormResponse(form), nil
}

func (c *call) update(ctx context.Context) (*domain.Response, error) {
	idField := c.sub.IDFieldName()
	id := c.params[idField]
	if err := requireParams(idField, id); err != nil {
		return nil, err
	}

	display := c.display()
	form, err := display.UpdateForm(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update form %s: %w", id, err)
	}
	if errs := form.Validate(c.params); len(errs) > 0 {
		c.event.Outcome = domain.OutcomeInvalid
		return domain.ResultResponse(domain.Failed(errs)), nil
	}
	data := form.FilterValues(c.params)

	c.beforeUpdate(ctx, id, data)
	if err := c.actions().Update(ctx, id, data); err != nil {
		return nil, err
	}
	c.afterUpdate(ctx, id, data)

	html, err := display.FullHTML(ctx, c.st)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	c.event.Outcome = domain.OutcomeOK
	return domain.ResultResponse(domain.Succeeded(domain.SetHTML(html))), nil
}

func (c *call) create(ctx context.Context) (*domain.Response, error) {
	display := c.display()
	form, err := display.CreateForm(ctx)
	if err != nil {
		return nil, fmt.Errorf("create form: %w", err)
	}
	if errs := form.Validate(c.params); len(errs) > 0 {
		c.event.Outcome = domain.OutcomeInvalid
		return domain.ResultResponse(domain.Failed(errs)), nil
	}
	data := form.FilterValues(c.params)

	c.beforeCreate(ctx, data)
	id, err := c.actions().Create(ctx, data)
	if err != nil {
		return nil, err
	}
	c.afterCreate(ctx, id, data)

	html, err := display.FullHTML(ctx, c.st)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	c.event.Outcome = domain.OutcomeOK
	return domain.ResultResponse(domain.Succeeded(domain.SetHTML(html))), nil
}

// move re-renders before afterMove runs.
func (c *call) move(ctx context.Context) (*domain.Response, error) {
	var p moveParams
	if err := decodeParams(c.params, &p); err != nil {
		return nil, err
	}
	if err := requireParams("id", p.ID, "targetId", p.TargetID, "beforeOrAfter", p.BeforeOrAfter); err != nil {
		return nil, err
	}
	pos, err := domain.ParsePosition(p.BeforeOrAfter)
	if err != nil {
		return nil, err
	}

	c.beforeMove(ctx, p.ID)
	if err := c.actions().Move(ctx, p.ID, p.TargetID, pos); err != nil {
		return nil, err
	}
	html, err := c.display().FullHTML(ctx, c.st)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	c.afterMove(ctx, p.ID)

	c.event.Outcome = domain.OutcomeOK
	return domain.CommandList(domain.SetHTML(html)), nil
}

// search merges the submitted filters into the status. An empty value
// clears its filter; antispam and securityToken are never stored.
func (c *call) search(ctx context.Context) (*domain.Response, error) {
	form, err := c.display().SearchForm(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("search form: %w", err)
	}
	if errs := form.Validate(c.params); len(errs) > 0 {
		c.event.Outcome = domain.OutcomeInvalid
		return domain.ResultResponse(domain.Failed(errs)), nil
	}
	values := form.FilterValues(c.params)

	next := c.st
	fields := make([]string, 0, len(values))
	for field := range values {
		fields = append(fields, field)
	}
	slices.Sort(fields)
	for _, field := range fields {
		if field == domain.ParamAntispam || field == domain.ParamSecurityToken {
			continue
		}
		if values[field] == "" {
			next = next.Without(status.SearchKey(field))
			continue
		}
		next = next.With(status.SearchKey(field), values[field])
	}

	c.event.Outcome = domain.OutcomeOK
	return domain.ResultResponse(domain.Succeeded(domain.SetHash(status.Encode(next)))), nil
}

// subgrid addresses the grid one level below the current one. Levels above
// are kept; pages, filters and any deeper level are dropped.
func (c *call) subgrid() (*domain.Response, error) {
	var p subgridParams
	if err := decodeParams(c.params, &p); err != nil {
		return nil, err
	}
	if err := requireParams("gridId", p.GridID, "gridParentId", p.GridParentID); err != nil {
		return nil, err
	}

	level := status.Depth(c.st) + 1
	next := status.Truncate(c.st, level-1).
		With(status.GridIDKey(level), p.GridID).
		With(status.ParentIDKey(level), p.GridParentID)

	c.event.Outcome = domain.OutcomeOK
	return domain.CommandList(domain.SetHash(status.Encode(next))), nil
}
