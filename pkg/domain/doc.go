/*
Package domain contains the core types of the grid controller.

It defines the grid configuration tree, the request and response shapes
of a dispatch, the client command protocol and the error taxonomy. The
package is kept pure and free of I/O, following Hexagonal Architecture
principles.

# Key Entities

  - GridConfig: a grid and, through its grid fields, the grids nested below it.
  - SubgridConfig: the resolved configuration of the level a status addresses.
  - Request / Response: one method call and its outcome.
  - Command: setHtml, setHash or showMessage, applied by the client in order.
  - Hooks: optional before/after callbacks and the PreventAction veto.
*/
package domain
