package main

import (
	"fmt"
	"os"

	"github.com/aretw0/lattice/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lattice",
	Short: "Lattice serves editable, nested data grids",
	Long: `Lattice turns grid definitions into server-side grids: paging, search,
forms with validation, reordering and nested subgrids, all driven by a
single status hash held by the browser widget.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("grids", "", "Grid definition file, YAML or JSON (env LATTICE_GRIDS)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error (env LATTICE_LOG_LEVEL)")
}

// loadSettings reads LATTICE_* variables; flags set on the command line win.
func loadSettings(cmd *cobra.Command) (cli.Settings, error) {
	s, err := cli.LoadSettings()
	if err != nil {
		return s, err
	}
	flags := cmd.Flags()
	override := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	override("grids", &s.Grids)
	override("log-level", &s.LogLevel)
	override("addr", &s.Addr)
	override("store", &s.Store)
	override("redis-addr", &s.RedisAddr)
	override("sqlite-dsn", &s.SQLiteDSN)
	if !flags.Changed("grids") && flags.NArg() > 0 {
		s.Grids = flags.Arg(0)
	}
	return s, s.Validate()
}
