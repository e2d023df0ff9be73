package main

import (
	"context"

	"github.com/aretw0/lattice/internal/cli"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp [grids-file]",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the grid engine as an MCP Server so agents can page, search and
edit grids through tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Pass --sse with a listen address. Ideal for remote agents or debuggers.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		addr, _ := cmd.Flags().GetString("sse")

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()
		return cli.RunMCP(ctx, s, addr)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("sse", "", "Serve SSE on this address instead of stdio")
	mcpCmd.Flags().String("store", "", "Record store: memory, redis or sqlite (env LATTICE_STORE)")
	mcpCmd.Flags().String("redis-addr", "", "Redis address (env LATTICE_REDIS_ADDR)")
	mcpCmd.Flags().String("sqlite-dsn", "", "SQLite data source (env LATTICE_SQLITE_DSN)")
}
