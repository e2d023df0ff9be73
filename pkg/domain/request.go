package domain

import (
	"encoding/json"
)

// Reserved parameter keys. They drive the protocol and never reach a handler.
const (
	ParamMethod = "method"
	ParamAction = "aa"
)

// Keys of the search form that must never be persisted into a status.
const (
	ParamAntispam      = "antispam"
	ParamSecurityToken = "securityToken"
)

// Params is a raw key/value bag submitted by the client.
type Params map[string]string

// Clone returns a shallow copy of p. A nil bag clones to an empty one.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Without returns a copy of p without the given keys.
func (p Params) Without(keys ...string) Params {
	out := p.Clone()
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// Request is a single grid call as seen by the dispatcher.
type Request struct {
	// Method is the raw method name. Empty means missing.
	Method string `json:"method"`
	// Hash is the encoded status the client currently holds.
	Hash string `json:"hash"`
	// Transport is the channel the call arrived on.
	Transport Transport `json:"-"`

	Query  Params `json:"query,omitempty"`
	Body   Params `json:"body,omitempty"`
	Params Params `json:"params,omitempty"`
}

// ParamsFor returns a copy of the parameter bag the given method reads from.
func (r Request) ParamsFor(m Method) Params {
	switch m.Source() {
	case SourceBody:
		return r.Body.Clone()
	case SourceQuery:
		return r.Query.Clone()
	}
	return r.Params.Clone()
}

// Result is the validation envelope returned by create, update and search.
// Error is 0 on success and 1 on validation failure.
type Result struct {
	Error    int               `json:"error"`
	Errors   map[string]string `json:"errors,omitempty"`
	Commands []Command         `json:"commands,omitempty"`
}

// Failed builds a validation failure envelope.
func Failed(errs map[string]string) *Result {
	return &Result{Error: 1, Errors: errs}
}

// Succeeded builds a success envelope carrying commands.
func Succeeded(cmds ...Command) *Result {
	return &Result{Error: 0, Commands: cmds}
}

// ResponseKind tells which of the response shapes is populated.
type ResponseKind string

const (
	KindEmpty    ResponseKind = "empty"
	KindCommands ResponseKind = "commands"
	KindResult   ResponseKind = "result"
	KindForm     ResponseKind = "form"
)

// Response is the outcome of a dispatch. Exactly one shape is populated,
// as reported by Kind.
type Response struct {
	Kind     ResponseKind
	Commands []Command
	Result   *Result
	// Form is the descriptor produced by the display collaborator. It is
	// opaque to the dispatcher and marshalled as-is.
	Form any
}

// CommandList wraps an ordered command sequence.
func CommandList(cmds ...Command) *Response {
	if cmds == nil {
		cmds = []Command{}
	}
	return &Response{Kind: KindCommands, Commands: cmds}
}

// ResultResponse wraps a validation envelope.
func ResultResponse(r *Result) *Response {
	return &Response{Kind: KindResult, Result: r}
}

// FormResponse wraps a form descriptor.
func FormResponse(form any) *Response {
	return &Response{Kind: KindForm, Form: form}
}

// EmptyResponse is returned for unrecognized methods.
func EmptyResponse() *Response {
	return &Response{Kind: KindEmpty}
}

// MarshalJSON writes the populated shape only: a command array, a result
// envelope, the form descriptor, or an empty object.
func (r Response) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case KindCommands:
		cmds := r.Commands
		if cmds == nil {
			cmds = []Command{}
		}
		return json.Marshal(cmds)
	case KindResult:
		return json.Marshal(r.Result)
	case KindForm:
		return json.Marshal(r.Form)
	}
	return []byte("{}"), nil
}
