/*
Package lattice is a server-side controller for nestable data grids.

A grid is a paginated, searchable, sortable table of records. A client
widget sends method calls (init, page, delete, updateForm, update, create,
move, search, subgrid) and applies the returned commands to the page. Grids
can nest: every record of a grid field opens a child grid scoped to that
record.

# Status

The only state a grid keeps is the hash the client round-trips with every
call. It encodes the current page, search filters and the path of nested
grids:

	gridId1=pets&gridParentId1=10&page1=2&s_petName=rex

The engine decodes it, resolves the grid level it addresses, runs the
method and returns commands, typically a re-rendered grid (setHtml) and a
new hash (setHash).

# Usage

	eng := lattice.New(lattice.WithRepository(memory.New()))
	if err := eng.Load("grids.yaml"); err != nil {
		log.Fatal(err)
	}

	resp, err := eng.Dispatch(ctx, "people", domain.Request{
		Method:    "init",
		Hash:      "",
		Transport: domain.TransportRead,
	})

Transports live under pkg/adapters: an HTTP router (chi) and an MCP server
for agents. Storage backends implement ports.Repository (memory, redis,
sqlite) and can be wrapped by the field encryption middleware.
*/
package lattice
