package http_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-scope/framework/container"
	gohttp "github.com/km-arc/go-scope/framework/http"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), rr.Body.String())
	return body
}

// ── JSON responses ───────────────────────────────────────────────────────────

func TestResponse_Envelopes(t *testing.T) {
	tests := []struct {
		name   string
		send   func(res *gohttp.Response)
		status int
		field  string
		want   any
	}{
		{"success", func(res *gohttp.Response) { res.Success("ok") }, http.StatusOK, "data", "ok"},
		{"created", func(res *gohttp.Response) { res.Created("new") }, http.StatusCreated, "data", "new"},
		{"error", func(res *gohttp.Response) { res.Error(http.StatusConflict, "taken") }, http.StatusConflict, "message", "taken"},
		{"not found default", func(res *gohttp.Response) { res.NotFound() }, http.StatusNotFound, "message", "Not found."},
		{"not found custom", func(res *gohttp.Response) { res.NotFound("gone") }, http.StatusNotFound, "message", "gone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			tt.send(gohttp.NewResponse(rr))

			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			assert.Equal(t, tt.want, decode(t, rr)[tt.field])
		})
	}
}

func TestResponse_NoContent(t *testing.T) {
	rr := httptest.NewRecorder()
	gohttp.NewResponse(rr).NoContent()
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())
}

func TestResponse_ValidationError(t *testing.T) {
	rr := httptest.NewRecorder()
	gohttp.NewResponse(rr).ValidationError(map[string][]string{"name": {"failed the required rule"}})

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.JSONEq(t, `{"errors":{"name":["failed the required rule"]}}`, rr.Body.String())
}

// ── Problem ──────────────────────────────────────────────────────────────────

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"missing", &container.MissingRegistrationError{Key: "k"}, http.StatusInternalServerError},
		{"unresolved", &container.UnresolvedDependencyError{Key: "k"}, http.StatusFailedDependency},
		{"cycle", &container.CircularDependencyError{Path: []string{"a", "b", "a"}}, http.StatusLoopDetected},
		{"wrapped missing", fmt.Errorf("outer: %w", &container.MissingRegistrationError{Key: "k"}), http.StatusInternalServerError},
		{"factory", &container.FactoryError{Key: "k", Cause: errors.New("boom")}, http.StatusInternalServerError},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, gohttp.StatusOf(tt.err))
		})
	}
}

func TestResponse_Problem(t *testing.T) {
	c := container.New()
	c.Register("a", func(c *container.Container) (any, error) { return c.Get("b") })
	c.Register("b", func(c *container.Container) (any, error) { return c.Get("a") })

	_, err := c.Get("a")
	rr := httptest.NewRecorder()
	gohttp.NewResponse(rr).Problem(err)

	assert.Equal(t, http.StatusLoopDetected, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, []any{"a", "b", "a"}, body["path"])
	assert.Equal(t, err.Error(), body["message"])

	_, err = c.Get("nope")
	rr = httptest.NewRecorder()
	gohttp.NewResponse(rr).Problem(err)
	assert.Equal(t, http.StatusInternalServerError, rr.Code, "a missing binding is a server fault")
	assert.Equal(t, "nope", decode(t, rr)["key"])
}
