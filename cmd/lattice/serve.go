package main

import (
	"context"
	"os"

	"github.com/aretw0/lattice/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve [grids-file]",
	Short: "Start the HTTP grid server",
	Long: `Loads the grid definitions and serves them over HTTP.

Every setting can come from a LATTICE_* environment variable; flags override them.
Reads use GET, writes (create, update, delete, move) need POST and, when
LATTICE_TOKEN_SECRET is set, a valid security token.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()
		return cli.RunServe(ctx, s, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (env LATTICE_ADDR, default :8080)")
	serveCmd.Flags().String("store", "", "Record store: memory, redis or sqlite (env LATTICE_STORE)")
	serveCmd.Flags().String("redis-addr", "", "Redis address (env LATTICE_REDIS_ADDR)")
	serveCmd.Flags().String("sqlite-dsn", "", "SQLite data source (env LATTICE_SQLITE_DSN)")
}
