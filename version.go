package lattice

import _ "embed"

// Version is the release of the lattice module.
//
//go:embed VERSION
var Version string
