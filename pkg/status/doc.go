/*
Package status encodes and decodes the hierarchical state of a grid.

A page can host several grids, and a grid can drill down into subgrids
nested under one of its records. The complete navigational state of one grid
instance (which nesting level is shown, the parent record of every level,
the current page and the active search filters) lives in a single opaque
hash string held by the client and echoed back on each call. The server
keeps nothing between calls.

# Variables

  - gridId{n}, gridParentId{n}: identity of the grid at level n and the
    record it is nested under. Levels are contiguous from 1.
  - page, page{n}: current page of the root grid and of level n.
  - s_{field}: active search filter for field, present only when non-empty.

Decode(Encode(s)) equals s for any status with non-empty keys, including
variable order.
*/
package status
