package domain

// Method names a grid operation requested by the client.
type Method string

const (
	MethodInit       Method = "init"
	MethodPage       Method = "page"
	MethodDelete     Method = "delete"
	MethodUpdateForm Method = "updateForm"
	MethodUpdate     Method = "update"
	MethodCreate     Method = "create"
	MethodMove       Method = "move"
	MethodSearch     Method = "search"
	MethodSubgrid    Method = "subgrid"

	// MethodUnknown is the explicit no-op state for unrecognized names.
	MethodUnknown Method = ""
)

// Methods lists every recognized method in dispatch-table order.
var Methods = []Method{
	MethodInit,
	MethodPage,
	MethodDelete,
	MethodUpdateForm,
	MethodUpdate,
	MethodCreate,
	MethodMove,
	MethodSearch,
	MethodSubgrid,
}

// ParseMethod maps a raw method name to a known Method.
// Unrecognized names map to MethodUnknown.
func ParseMethod(name string) Method {
	for _, m := range Methods {
		if string(m) == name {
			return m
		}
	}
	return MethodUnknown
}

// Mutating reports whether the method changes stored records and therefore
// must arrive through the write transport.
func (m Method) Mutating() bool {
	switch m {
	case MethodUpdate, MethodCreate, MethodDelete, MethodMove:
		return true
	}
	return false
}

// ParamSource tells where a method reads its parameters from.
type ParamSource int

const (
	// SourceParams is the merged request parameter bag.
	SourceParams ParamSource = iota
	// SourceBody is the submitted form body.
	SourceBody
	// SourceQuery is the request query string.
	SourceQuery
)

// Source returns the parameter source of the method.
func (m Method) Source() ParamSource {
	switch m {
	case MethodCreate, MethodUpdate:
		return SourceBody
	case MethodSearch:
		return SourceQuery
	}
	return SourceParams
}

// Transport distinguishes the read-only channel from the write channel.
// Over HTTP these are GET and POST.
type Transport int

const (
	TransportRead Transport = iota
	TransportWrite
)

func (t Transport) String() string {
	if t == TransportWrite {
		return "write"
	}
	return "read"
}
