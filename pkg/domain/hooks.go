package domain

import (
	"context"

	"github.com/aretw0/lattice/pkg/status"
)

// Hooks are optional interception points bound to a grid. A nil hook is
// skipped. Only PreventAction can stop a call; the others are notifications.
type Hooks struct {
	BeforeCreate func(ctx context.Context, data Record)
	AfterCreate  func(ctx context.Context, id string, data Record)
	BeforeUpdate func(ctx context.Context, id string, data Record)
	AfterUpdate  func(ctx context.Context, id string, data Record)
	BeforeDelete func(ctx context.Context, id string)
	// AfterDelete runs only when a delete failed and was turned into a
	// message. A successful delete does not call it.
	AfterDelete  func(ctx context.Context, id string)
	BeforeMove   func(ctx context.Context, id string)
	AfterMove    func(ctx context.Context, id string)

	// PreventAction runs before every method. It receives the raw method
	// name and the parameters before reserved keys are stripped. A non-empty
	// Prevention short-circuits the call.
	PreventAction func(ctx context.Context, method Method, params Params, st status.Status) *Prevention
}

// Prevention is the outcome of a PreventAction veto. Commands, when present,
// are returned verbatim; otherwise Message is shown to the user.
type Prevention struct {
	Commands []Command
	Message  string
}

// Deny vetoes a call with a message.
func Deny(message string) *Prevention {
	return &Prevention{Message: message}
}

// DenyWith vetoes a call with an explicit command list.
func DenyWith(cmds ...Command) *Prevention {
	return &Prevention{Commands: cmds}
}

// Empty reports whether p lets the call proceed.
func (p *Prevention) Empty() bool {
	return p == nil || (len(p.Commands) == 0 && p.Message == "")
}

// Response converts a non-empty prevention into the command list sent back.
func (p *Prevention) Response() []Command {
	if len(p.Commands) > 0 {
		out := make([]Command, len(p.Commands))
		copy(out, p.Commands)
		return out
	}
	return []Command{ShowMessage(p.Message)}
}
