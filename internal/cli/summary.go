package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/lattice/internal/presentation/tui"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/status"
)

// RunValidate checks the grid definition file and prints a summary of the
// grid tree.
func RunValidate(out io.Writer, path string) error {
	grids, err := loadGrids(path)
	if err != nil {
		return err
	}
	if tui.IsTerminal(out) {
		tui.PrintBanner(out)
	}
	rendered, err := tui.NewRenderer(out)(Summary(grids))
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(out, rendered)
	return err
}

// Summary describes the grids as a markdown document.
func Summary(grids []*domain.GridConfig) string {
	var b strings.Builder
	b.WriteString("# Grids\n\n")
	b.WriteString("| grid | table | depth | fields | sortable | page key |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, cfg := range grids {
		summarize(&b, cfg.Name, cfg, 0)
	}
	return b.String()
}

func summarize(b *strings.Builder, path string, cfg *domain.GridConfig, depth int) {
	var fields []string
	for _, f := range cfg.Fields {
		if f.InputType() != domain.FieldGrid {
			fields = append(fields, f.Field)
		}
	}
	sortable := "no"
	if cfg.CanSort() {
		sortable = "yes"
	}
	pageKey := cfg.PageVariableName
	if pageKey == "" {
		pageKey = status.PageKey(depth)
	}
	fmt.Fprintf(b, "| %s | %s | %d | %s | %s | %s |\n",
		path, cfg.Table, depth, strings.Join(fields, ", "), sortable, pageKey)

	for _, f := range cfg.Children() {
		summarize(b, path+"."+f.Field, f.Config, depth+1)
	}
}
