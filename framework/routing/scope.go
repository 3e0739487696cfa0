package routing

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/km-arc/go-scope/framework/container"
	"github.com/km-arc/go-scope/framework/logging"
)

// RequestIDHeader carries the id of the request scope. An incoming value is
// reused; otherwise a UUID v4 is generated.
const RequestIDHeader = "X-Request-ID"

// Keys registered in every request scope.
const (
	RequestKey   = "request"
	RequestIDKey = "request.id"
)

type scopeKey struct{}

// Scoped gives every request its own child of root. The child holds the
// *http.Request under RequestKey and the request id under RequestIDKey, so
// per-request registrations shadow application-wide ones without touching
// them. Handlers reach the scope through Container.
func Scoped(root *container.Container) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if id == "" {
				id = uuid.New().String()
			}
			name := "request:" + id

			scope := root.Child(
				container.WithName(name),
				container.WithLogger(logging.Scoped(root.Logger(), name)),
			)
			r = r.WithContext(context.WithValue(r.Context(), scopeKey{}, scope))
			scope.Instance(RequestKey, r).Instance(RequestIDKey, id)

			w.Header().Set(RequestIDHeader, id)
			next.ServeHTTP(w, r)
		})
	}
}

// Container returns the request scope installed by Scoped, or nil.
func Container(r *http.Request) *container.Container {
	c, _ := r.Context().Value(scopeKey{}).(*container.Container)
	return c
}
