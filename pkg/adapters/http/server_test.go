package http_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/pkg/adapters/memory"
	latticehttp "github.com/aretw0/lattice/pkg/adapters/http"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/observability"
	"github.com/aretw0/lattice/pkg/token"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var people = domain.Table{Name: "people", IDField: "id", SortField: "position"}

func newEngine(t *testing.T) (*lattice.Engine, *memory.Repository) {
	t.Helper()
	repo := memory.New()
	repo.Seed(people,
		domain.Record{"id": "1", "name": "Ann", "position": "1"},
		domain.Record{"id": "2", "name": "Bob", "position": "2"},
	)
	eng := lattice.New(lattice.WithRepository(repo))
	require.NoError(t, eng.Register(&domain.GridConfig{
		Name:      "people",
		Table:     "people",
		SortField: "position",
		Fields: []domain.Field{
			{Field: "name", Validators: []string{"required"}, Searchable: true},
		},
	}))
	return eng, repo
}

func newIssuer(t *testing.T) *token.Issuer {
	t.Helper()
	issuer, err := token.NewIssuer([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	return issuer
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

func postForm(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestDispatch_Read(t *testing.T) {
	eng, _ := newEngine(t)
	handler := latticehttp.NewHandler(eng)

	req := httptest.NewRequest(http.MethodGet, "/grids/people?method=init&hash=", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var cmds []domain.Command
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cmds))
	require.Len(t, cmds, 1)
	assert.Equal(t, domain.CommandSetHTML, cmds[0].Type)
	assert.Contains(t, cmds[0].HTML, "Bob")
}

func TestDispatch_PageParams(t *testing.T) {
	eng, _ := newEngine(t)
	handler := latticehttp.NewHandler(eng)

	req := httptest.NewRequest(http.MethodGet, "/grids/people?method=page&params[page]=3", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"type":"setHash","hash":"page=3"}]`, w.Body.String())
}

func TestDispatch_SearchReadsQuery(t *testing.T) {
	eng, _ := newEngine(t)
	handler := latticehttp.NewHandler(eng)

	req := httptest.NewRequest(http.MethodGet, "/grids/people?method=search&hash=page=2&name=ann", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var res domain.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 0, res.Error)
	require.Len(t, res.Commands, 1)
	assert.Equal(t, "page=2&s_name=ann", res.Commands[0].Hash)
}

func TestDispatch_WriteTransport(t *testing.T) {
	eng, repo := newEngine(t)
	handler := latticehttp.NewHandler(eng)

	t.Run("Rejected On Read", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/grids/people?method=delete&params[id]=1", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		assert.Contains(t, decodeError(t, w), "write transport")
	})

	t.Run("Create Form Body", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, postForm("/grids/people", url.Values{
			"method": {"create"},
			"name":   {"Cy"},
		}))

		require.Equal(t, http.StatusOK, w.Code)
		var res domain.Result
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, 0, res.Error)
		require.Len(t, res.Commands, 1)
		assert.Contains(t, res.Commands[0].HTML, "Cy")

		_, total, err := repo.List(t.Context(), people, domain.Query{})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
	})

	t.Run("Create Invalid", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, postForm("/grids/people", url.Values{"method": {"create"}}))

		require.Equal(t, http.StatusOK, w.Code)
		var res domain.Result
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, 1, res.Error)
		assert.Contains(t, res.Errors, "name")
	})

	t.Run("Delete JSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/grids/people",
			strings.NewReader(`{"method":"delete","hash":"","params":{"id":"1"}}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		_, err := repo.Get(t.Context(), people, "1")
		assert.ErrorIs(t, err, domain.ErrRecordNotFound)
	})
}

func TestDispatch_Errors(t *testing.T) {
	eng, _ := newEngine(t)
	handler := latticehttp.NewHandler(eng)

	cases := []struct {
		name   string
		target string
		code   int
	}{
		{"Missing Method", "/grids/people", http.StatusBadRequest},
		{"Unknown Grid", "/grids/ghost?method=init", http.StatusNotFound},
		{"Stale Hash", "/grids/people?method=init&hash=" + url.QueryEscape("gridId1=nope&gridParentId1=1"), http.StatusBadRequest},
		{"Missing Record", "/grids/people?method=updateForm&params[id]=99", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.target, nil))
			assert.Equal(t, tc.code, w.Code)
			assert.NotEmpty(t, decodeError(t, w))
		})
	}

	t.Run("Unknown Method", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/grids/people?method=explode", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{}`, w.Body.String())
	})

	t.Run("Invalid JSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/grids/people", strings.NewReader(`{`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSecurityToken(t *testing.T) {
	eng, _ := newEngine(t)
	issuer := newIssuer(t)
	handler := latticehttp.NewHandler(eng, latticehttp.WithTokens(issuer))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/grids/people/token", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var issued map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &issued))
	tok := issued["token"]
	require.NotEmpty(t, tok)

	t.Run("Missing", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, postForm("/grids/people", url.Values{"method": {"init"}}))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Form Field", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, postForm("/grids/people", url.Values{
			"method":        {"init"},
			"securityToken": {tok},
		}))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/grids/people", strings.NewReader(`{"method":"init"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(latticehttp.HeaderSecurityToken, tok)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Reads Stay Open", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/grids/people?method=init", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Unknown Grid", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/grids/ghost/token", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestMetaEndpoints(t *testing.T) {
	eng, _ := newEngine(t)
	reg := prometheus.NewRegistry()
	handler := latticehttp.NewHandler(eng, latticehttp.WithGatherer(reg))

	t.Run("Health", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	})

	t.Run("Info", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/info", nil))
		var info map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
		assert.Equal(t, "lattice-http", info["app"])
		assert.Equal(t, "1.0.0", info["api_version"])
	})

	t.Run("Grids", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/grids", nil))
		assert.JSONEq(t, `{"grids":["people"]}`, w.Body.String())
	})

	t.Run("OpenAPI", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "/grids/{grid}")
	})

	t.Run("Metrics", func(t *testing.T) {
		metrics, err := observability.NewMetrics(reg)
		require.NoError(t, err)
		metrics.Hooks().OnComplete(t.Context(), &domain.DispatchEvent{Grid: "people", Method: "init", Outcome: domain.OutcomeOK})

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "lattice_dispatch_total")
	})

	t.Run("CORS Preflight", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/grids/people", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), latticehttp.HeaderSecurityToken)
	})
}

func TestSpec_Valid(t *testing.T) {
	doc, err := latticehttp.Spec()
	require.NoError(t, err)
	assert.NotNil(t, doc.Paths.Find("/grids/{grid}"))
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusMethodNotAllowed, latticehttp.StatusCode(domain.MethodNotAllowed(domain.MethodDelete)))
	assert.Equal(t, http.StatusBadRequest, latticehttp.StatusCode(domain.BadRequest("x")))
	assert.Equal(t, http.StatusBadRequest, latticehttp.StatusCode(&domain.ConfigurationError{Level: 1}))
	assert.Equal(t, http.StatusForbidden, latticehttp.StatusCode(token.ErrInvalidToken))
	assert.Equal(t, http.StatusNotFound, latticehttp.StatusCode(domain.ErrRecordNotFound))
	assert.Equal(t, http.StatusInternalServerError, latticehttp.StatusCode(errors.New("disk full")))
}
