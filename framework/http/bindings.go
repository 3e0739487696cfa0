package http

import (
	"fmt"
	"net/http"

	"github.com/km-arc/go-scope/framework/container"
	"github.com/km-arc/go-scope/framework/routing"
)

// Binding describes one local registration of a container.
type Binding struct {
	Key      string `json:"key"`
	Resolved bool   `json:"resolved"`
}

// Scope is the JSON shape served by BindingsHandler: a container's own
// registrations followed by its ancestors'.
type Scope struct {
	Name     string    `json:"name"`
	Bindings []Binding `json:"bindings"`
	Parent   *Scope    `json:"parent,omitempty"`
}

// Describe snapshots c and its ancestors. Nothing is instantiated.
func Describe(c *container.Container) *Scope {
	if c == nil {
		return nil
	}
	keys := c.Keys()
	s := &Scope{Name: c.Name(), Bindings: make([]Binding, 0, len(keys))}
	for _, key := range keys {
		s.Bindings = append(s.Bindings, Binding{Key: key, Resolved: c.Resolved(key)})
	}
	s.Parent = Describe(c.Parent())
	return s
}

// BindingsHandler serves Describe of the request scope when routing.Scoped is
// installed, otherwise of fallback.
func BindingsHandler(fallback *container.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := routing.Container(r)
		if c == nil {
			c = fallback
		}
		NewResponse(w).Success(Describe(c))
	}
}

// ResolveHandler resolves the {key} route param in the request scope and
// reports the Go type of the result. A key registered nowhere in the scope
// chain is a 404; every other failure goes through Problem.
func ResolveHandler(fallback *container.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := NewRequest(r)
		c := req.Scope()
		if c == nil {
			c = fallback
		}

		key := req.Param("key")
		v, err := c.Get(key)
		switch {
		case err != nil && !c.Has(key):
			NewResponse(w).JSON(http.StatusNotFound, envelope{"key": key, "message": err.Error()})
			return
		case err != nil:
			NewResponse(w).Problem(err)
			return
		}
		NewResponse(w).Success(map[string]any{
			"key":  key,
			"type": fmt.Sprintf("%T", v),
		})
	}
}
