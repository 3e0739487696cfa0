package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/km-arc/go-scope/framework/container"
)

// ── Response ─────────────────────────────────────────────────────────────────

// Response wraps http.ResponseWriter with JSON helpers.
type Response struct {
	w http.ResponseWriter
}

// NewResponse wraps a ResponseWriter.
func NewResponse(w http.ResponseWriter) *Response {
	return &Response{w: w}
}

// JSON sends a JSON response.
//
//	res.JSON(http.StatusOK, map[string]any{"message": "ok"})
func (res *Response) JSON(status int, data any) {
	res.w.Header().Set("Content-Type", "application/json")
	res.w.WriteHeader(status)
	_ = json.NewEncoder(res.w).Encode(data)
}

// Success sends 200 JSON: {"data": v}
func (res *Response) Success(v any) {
	res.JSON(http.StatusOK, envelope{"data": v})
}

// Created sends 201 JSON: {"data": v}
func (res *Response) Created(v any) {
	res.JSON(http.StatusCreated, envelope{"data": v})
}

// NoContent sends 204 with no body.
func (res *Response) NoContent() {
	res.w.WriteHeader(http.StatusNoContent)
}

// Error sends {"message": message} with the given status.
func (res *Response) Error(status int, message string) {
	res.JSON(status, envelope{"message": message})
}

// NotFound sends 404.
func (res *Response) NotFound(message ...string) {
	res.Error(http.StatusNotFound, first(message, "Not found."))
}

// ValidationError sends 422 with a field → messages bag.
func (res *Response) ValidationError(bag map[string][]string) {
	res.JSON(http.StatusUnprocessableEntity, envelope{"errors": bag})
}

// Problem reports err with the status from StatusOf. The body names the
// failing key where the error carries one.
func (res *Response) Problem(err error) {
	body := envelope{"message": err.Error()}

	var (
		missing    *container.MissingRegistrationError
		unresolved *container.UnresolvedDependencyError
		cycle      *container.CircularDependencyError
	)
	switch {
	case errors.As(err, &missing):
		body["key"] = missing.Key
	case errors.As(err, &unresolved):
		body["key"] = unresolved.Key
	case errors.As(err, &cycle):
		body["path"] = cycle.Path
	}
	res.JSON(StatusOf(err), body)
}

// StatusOf maps container errors onto HTTP statuses:
//
//	UnresolvedDependencyError  → 424
//	CircularDependencyError    → 508
//	anything else              → 500
//
// A MissingRegistrationError is a wiring fault on the server and maps to 500.
// Handlers that resolve a client-supplied key answer 404 themselves.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, container.ErrCircularDependency):
		return http.StatusLoopDetected
	case errors.Is(err, container.ErrUnresolvedDependency):
		return http.StatusFailedDependency
	default:
		return http.StatusInternalServerError
	}
}

// ── Helpers ──────────────────────────────────────────────────────────────────

type envelope map[string]any

func first(ss []string, fallback string) string {
	if len(ss) > 0 && ss[0] != "" {
		return ss[0]
	}
	return fallback
}
