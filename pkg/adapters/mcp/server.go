package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/status"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	gridsURI         = "lattice://grids"
	gridTemplateURI  = "lattice://grids/{name}"
	gridURIPrefix    = gridsURI + "/"
	shutdownDeadline = 5 * time.Second
)

// Engine defines what the MCP server needs from the grid engine.
type Engine interface {
	Dispatch(ctx context.Context, grid string, req domain.Request) (*domain.Response, error)
	Grids() []string
	Config(grid string) (*domain.GridConfig, error)
}

// DispatchArgs is the input of the grid_dispatch tool.
type DispatchArgs struct {
	Grid   string            `json:"grid" jsonschema_description:"Name of the registered root grid"`
	Method string            `json:"method" jsonschema_description:"Grid method (init, page, delete, updateForm, update, create, move, search, subgrid)"`
	Hash   string            `json:"hash,omitempty" jsonschema_description:"Status hash the client currently holds"`
	Params map[string]string `json:"params,omitempty" jsonschema_description:"Method parameters; also used as form body and search query"`
	Write  bool              `json:"write,omitempty" jsonschema_description:"Send on the write transport, required for mutating methods"`
}

// DispatchResult is the output of the grid_dispatch tool.
type DispatchResult struct {
	Kind     string `json:"kind" jsonschema_description:"Which response shape is populated: commands, result, form or empty"`
	Response any    `json:"response" jsonschema_description:"The response exactly as sent to the grid widget"`
}

// HashArgs is the input of the hash_decode tool.
type HashArgs struct {
	Hash string `json:"hash"`
}

// Pair is one status key/value in hash order.
type Pair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// DecodedHash is the output of the hash_decode tool.
type DecodedHash struct {
	Hash    string            `json:"hash" jsonschema_description:"Canonical encoding of the decoded status"`
	Depth   int               `json:"depth" jsonschema_description:"Number of nested grid levels addressed"`
	Pairs   []Pair            `json:"pairs"`
	Filters map[string]string `json:"filters,omitempty"`
}

// EncodeArgs is the input of the hash_encode tool.
type EncodeArgs struct {
	Pairs []string `json:"pairs" jsonschema_description:"Ordered key=value entries"`
}

// EncodedHash is the output of the hash_encode tool.
type EncodedHash struct {
	Hash string `json:"hash"`
}

// Server wraps the grid engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine: engine,
		logger: logging.NewNop(),
		mcpServer: server.NewMCPServer("lattice-mcp", strings.TrimSpace(lattice.Version),
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	baseURL := "http://" + addr
	if strings.HasPrefix(addr, ":") {
		baseURL = "http://localhost" + addr
	}
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())
	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownDeadline)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("grid_dispatch",
		mcp.WithDescription("Run one grid method against a registered grid and return the widget response."),
		mcp.WithString("grid", mcp.Required(), mcp.Description("Name of the registered root grid")),
		mcp.WithString("method", mcp.Required(), mcp.Description("Grid method name")),
		mcp.WithString("hash", mcp.Description("Status hash (optional)")),
		mcp.WithObject("params", mcp.Description("Method parameters as string values")),
		mcp.WithBoolean("write", mcp.Description("Use the write transport (required for create, update, delete, move)")),
		mcp.WithOutputSchema[DispatchResult](),
	), mcp.NewStructuredToolHandler(s.handleDispatch))

	s.mcpServer.AddTool(mcp.NewTool("hash_decode",
		mcp.WithDescription("Decode a grid status hash into its ordered keys, nesting depth and search filters."),
		mcp.WithString("hash", mcp.Required(), mcp.Description("Status hash")),
		mcp.WithOutputSchema[DecodedHash](),
	), mcp.NewStructuredToolHandler(s.handleDecode))

	s.mcpServer.AddTool(mcp.NewTool("hash_encode",
		mcp.WithDescription("Encode ordered key=value entries into a grid status hash."),
		mcp.WithArray("pairs", mcp.Required(), mcp.Description("Ordered key=value entries"), mcp.WithStringItems()),
		mcp.WithOutputSchema[EncodedHash](),
	), mcp.NewStructuredToolHandler(s.handleEncode))
}

func (s *Server) handleDispatch(ctx context.Context, request mcp.CallToolRequest, args DispatchArgs) (DispatchResult, error) {
	req := domain.Request{
		Method: args.Method,
		Hash:   args.Hash,
		Params: domain.Params(args.Params).Clone(),
		Body:   domain.Params(args.Params).Clone(),
		Query:  domain.Params(args.Params).Clone(),
	}
	if args.Write {
		req.Transport = domain.TransportWrite
	}

	resp, err := s.engine.Dispatch(ctx, args.Grid, req)
	if err != nil {
		s.logger.Warn("MCP dispatch failed", "grid", args.Grid, "method", args.Method, "err", err)
		return DispatchResult{}, fmt.Errorf("dispatch failed: %w", err)
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		return DispatchResult{}, fmt.Errorf("encode response: %w", err)
	}
	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		return DispatchResult{}, fmt.Errorf("encode response: %w", err)
	}
	return DispatchResult{Kind: string(resp.Kind), Response: body}, nil
}

func (s *Server) handleDecode(ctx context.Context, request mcp.CallToolRequest, args HashArgs) (DecodedHash, error) {
	st := status.Decode(args.Hash)
	out := DecodedHash{
		Hash:    status.Encode(st),
		Depth:   status.Depth(st),
		Pairs:   []Pair{},
		Filters: status.Filters(st),
	}
	st.Range(func(key, value string) bool {
		out.Pairs = append(out.Pairs, Pair{Key: key, Value: value})
		return true
	})
	return out, nil
}

func (s *Server) handleEncode(ctx context.Context, request mcp.CallToolRequest, args EncodeArgs) (EncodedHash, error) {
	kv := make([]string, 0, 2*len(args.Pairs))
	for _, pair := range args.Pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return EncodedHash{}, fmt.Errorf("invalid pair %q: expected key=value", pair)
		}
		kv = append(kv, key, value)
	}
	return EncodedHash{Hash: status.Encode(status.FromPairs(kv...))}, nil
}

func (s *Server) registerResources() {
	// EXPOSE: lattice://grids
	s.mcpServer.AddResource(mcp.NewResource(gridsURI, "Registered Grids",
		mcp.WithResourceDescription("Names of the grids served by this engine"),
		mcp.WithMIMEType("application/json"),
	), s.readGrids)

	// EXPOSE: lattice://grids/{name}
	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(gridTemplateURI, "Grid Definition",
		mcp.WithTemplateDescription("Configuration of one grid and the grids nested below it"),
		mcp.WithTemplateMIMEType("application/json"),
	), s.readGrid)
}

func (s *Server) readGrids(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	names := s.engine.Grids()
	if names == nil {
		names = []string{}
	}
	return jsonContents(gridsURI, names)
}

func (s *Server) readGrid(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := request.Params.URI
	name, ok := strings.CutPrefix(uri, gridURIPrefix)
	if !ok || name == "" {
		return nil, fmt.Errorf("invalid grid uri %q: expected %s", uri, gridTemplateURI)
	}
	cfg, err := s.engine.Config(name)
	if err != nil {
		return nil, err
	}
	return jsonContents(uri, cfg)
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}
