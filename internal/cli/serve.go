package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	latticehttp "github.com/aretw0/lattice/pkg/adapters/http"
	"github.com/aretw0/lattice/pkg/adapters/mcp"
)

const shutdownTimeout = 5 * time.Second

// RunServe serves the HTTP transport until ctx is cancelled.
func RunServe(ctx context.Context, s Settings, out io.Writer) error {
	logger := createLogger(s, true)
	rt, err := createEngine(ctx, s, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	opts := []latticehttp.Option{
		latticehttp.WithLogger(logger),
		latticehttp.WithGatherer(rt.Registry),
	}
	if rt.Tokens != nil {
		opts = append(opts, latticehttp.WithTokens(rt.Tokens))
	}

	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           latticehttp.NewHandler(rt.Engine, opts...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		printSystemMessage(out, "Starting Lattice Server on %s", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("graceful shutdown did not complete in %v: %w", shutdownTimeout, err)
		}
		printSystemMessage(out, "Lattice Server stopped gracefully")
		return nil
	}
}

// RunMCP serves the MCP transport on stdio, or on SSE when addr is set.
func RunMCP(ctx context.Context, s Settings, addr string) error {
	// Stdout carries JSON-RPC on stdio: logs stay on Stderr.
	logger := createLogger(s, false)
	rt, err := createEngine(ctx, s, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	srv := mcp.NewServer(rt.Engine, mcp.WithLogger(logger))
	if addr == "" {
		logger.Info("Starting Lattice MCP Server (Stdio)")
		return srv.ServeStdio()
	}
	return srv.ServeSSE(ctx, addr)
}
