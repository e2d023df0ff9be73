package main

import (
	"os"

	"github.com/aretw0/lattice/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [grids-file]",
	Short: "Check grid definitions for consistency",
	Long:  `Loads the grid definitions, reports every configuration error and prints the grid tree.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		return cli.RunValidate(os.Stdout, s.Grids)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
