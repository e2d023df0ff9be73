/*
Package ports defines the driven ports (interfaces) of the grid controller.

These interfaces decouple the dispatcher from storage and rendering, so the
same grids can run on top of memory, Redis or SQLite and with any markup.

# Key Interfaces

  - Repository: stores the records of every grid table.
  - Actions: commits changes for one resolved grid level.
  - Display / Form: renders a grid level and validates submitted values.
  - DistributedLocker: serializes multi-record rewrites across replicas.
*/
package ports
