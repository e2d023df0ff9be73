package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/token"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// HeaderSecurityToken carries the security token on write requests that
// do not submit it as a form field.
const HeaderSecurityToken = "X-Security-Token"

const tracerName = "github.com/aretw0/lattice/pkg/adapters/http"

// maxBodyBytes bounds form and JSON bodies.
const maxBodyBytes = 1 << 20

//go:embed openapi.yaml
var rawSpec []byte

// Dispatcher defines what the transport needs from the grid engine.
type Dispatcher interface {
	Dispatch(ctx context.Context, grid string, req domain.Request) (*domain.Response, error)
	Grids() []string
}

// Tokens issues and verifies per-grid security tokens.
type Tokens interface {
	Issue(grid string) (string, error)
	Verify(raw, grid string) error
}

// Server routes HTTP requests to a Dispatcher.
type Server struct {
	engine   Dispatcher
	tokens   Tokens
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	tracer   trace.Tracer
}

// Option configures a Server.
type Option func(*Server)

// WithTokens requires a valid security token on every POST.
func WithTokens(t Tokens) Option {
	return func(s *Server) {
		s.tokens = t
	}
}

// WithGatherer exposes the gatherer on GET /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTracerProvider overrides the global otel tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Server) {
		if tp != nil {
			s.tracer = tp.Tracer(tracerName)
		}
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Dispatcher, opts ...Option) http.Handler {
	s := &Server{
		engine: engine,
		logger: logging.NewNop(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/grids", func(g chi.Router) {
		g.Get("/", s.ListGrids)
		g.Get("/{grid}", s.Dispatch)
		g.With(s.requireToken).Post("/{grid}", s.Dispatch)
		g.Get("/{grid}/token", s.IssueToken)
	})
	return r
}

// Spec returns the embedded OpenAPI document after validating it.
var Spec = sync.OnceValues(func() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(rawSpec)
	if err != nil {
		return nil, fmt.Errorf("load openapi spec: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid openapi spec: %w", err)
	}
	return doc, nil
})

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+HeaderSecurityToken)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if doc, err := Spec(); err == nil && doc.Info != nil {
		apiVersion = doc.Info.Version
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "lattice-http",
		"version":     strings.TrimSpace(lattice.Version),
		"api_version": apiVersion,
	})
}

// ListGrids handles the GET /grids request.
func (s *Server) ListGrids(w http.ResponseWriter, r *http.Request) {
	names := s.engine.Grids()
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"grids": names})
}

// IssueToken handles the GET /grids/{grid}/token request.
func (s *Server) IssueToken(w http.ResponseWriter, r *http.Request) {
	grid := chi.URLParam(r, "grid")
	if !s.known(grid) {
		s.fail(w, r, fmt.Errorf("%w: %s", domain.ErrGridNotFound, grid))
		return
	}
	if s.tokens == nil {
		writeJSON(w, http.StatusOK, map[string]string{"token": ""})
		return
	}
	tok, err := s.tokens.Issue(grid)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": tok})
}

// Dispatch handles GET and POST /grids/{grid}. GET is the read transport,
// POST the write transport.
func (s *Server) Dispatch(w http.ResponseWriter, r *http.Request) {
	grid := chi.URLParam(r, "grid")

	req, err := parseRequest(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	ctx, span := s.tracer.Start(r.Context(), "lattice.dispatch",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("lattice.grid", grid),
			attribute.String("lattice.method", req.Method),
			attribute.String("lattice.transport", req.Transport.String()),
		),
	)
	defer span.End()

	resp, err := s.engine.Dispatch(ctx, grid, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.fail(w, r, err)
		return
	}
	span.SetAttributes(attribute.String("lattice.response", string(resp.Kind)))
	writeJSON(w, http.StatusOK, resp)
}

// requireToken rejects POST requests without a valid security token when
// tokens are enabled.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.tokens == nil {
			next.ServeHTTP(w, r)
			return
		}
		grid := chi.URLParam(r, "grid")
		raw := r.Header.Get(HeaderSecurityToken)
		if raw == "" && !isJSON(r) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
			if err := r.ParseForm(); err == nil {
				raw = r.PostForm.Get(domain.ParamSecurityToken)
				if raw == "" {
					raw = r.PostForm.Get("params[" + domain.ParamSecurityToken + "]")
				}
			}
		}
		if err := s.tokens.Verify(raw, grid); err != nil {
			s.fail(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) known(grid string) bool {
	for _, name := range s.engine.Grids() {
		if name == grid {
			return true
		}
	}
	return false
}

// fail writes err as a JSON error body with the matching status code.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := StatusCode(err)
	if code >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "err", err)
	} else {
		s.logger.WarnContext(r.Context(), "request rejected", "path", r.URL.Path, "status", code, "err", err)
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

// StatusCode maps dispatch errors to HTTP status codes.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed
	case errors.Is(err, domain.ErrBadRequest), errors.Is(err, domain.ErrConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, token.ErrInvalidToken):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrGridNotFound), errors.Is(err, domain.ErrRecordNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// parseRequest maps an HTTP request onto a grid call.
//
// Form requests follow the widget's wire format: method and hash are plain
// fields, handler parameters use params[name] keys, the query string is the
// search source and the form body the create/update source. JSON requests
// carry the same shape as a domain.Request document.
func parseRequest(w http.ResponseWriter, r *http.Request) (domain.Request, error) {
	req := domain.Request{Transport: domain.TransportRead}
	if r.Method == http.MethodPost {
		req.Transport = domain.TransportWrite
	}

	query := r.URL.Query()
	if req.Transport == domain.TransportWrite && isJSON(r) {
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err := dec.Decode(&req); err != nil {
			return req, domain.BadRequest("invalid JSON body: %v", err)
		}
		req.Transport = domain.TransportWrite
		if req.Query == nil {
			req.Query = flatten(query)
		}
		if req.Method == "" {
			req.Method = query.Get(domain.ParamMethod)
		}
		if req.Hash == "" {
			req.Hash = query.Get("hash")
		}
		return req, nil
	}

	if r.PostForm == nil {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		}
		if err := r.ParseForm(); err != nil {
			return req, domain.BadRequest("invalid form: %v", err)
		}
	}

	req.Method = r.Form.Get(domain.ParamMethod)
	req.Hash = r.Form.Get("hash")
	req.Query = flatten(query)
	req.Body = flatten(r.PostForm)
	req.Params = nested(r.Form, "params")
	return req, nil
}

// flatten keeps the first value of every key.
func flatten(values url.Values) domain.Params {
	out := make(domain.Params, len(values))
	for k, v := range values {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

// nested collects keys of the form prefix[name] into a bag keyed by name.
func nested(values url.Values, prefix string) domain.Params {
	out := make(domain.Params)
	for k, v := range values {
		name, ok := strings.CutPrefix(k, prefix+"[")
		if !ok || !strings.HasSuffix(name, "]") || len(v) == 0 {
			continue
		}
		out[strings.TrimSuffix(name, "]")] = v[0]
	}
	return out
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}
