package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/km-arc/go-scope/framework/container"
	"github.com/km-arc/go-scope/framework/routing"
)

// ── Request ──────────────────────────────────────────────────────────────────

// Request wraps *http.Request with binding helpers.
type Request struct {
	raw *http.Request
}

// NewRequest wraps a standard *http.Request.
func NewRequest(r *http.Request) *Request {
	return &Request{raw: r}
}

// Raw returns the underlying *http.Request.
func (req *Request) Raw() *http.Request { return req.raw }

// Scope returns the request's container, installed by routing.Scoped.
func (req *Request) Scope() *container.Container { return routing.Container(req.raw) }

// Param returns a URL route parameter.
func (req *Request) Param(key string) string { return routing.Param(req.raw, key) }

// ── Binding ──────────────────────────────────────────────────────────────────

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// BindingErrors is the field → messages bag produced by a failed Bind.
type BindingErrors map[string][]string

func (e BindingErrors) Error() string {
	return fmt.Sprintf("http: %d invalid field(s)", len(e))
}

// Bind decodes a JSON body into v and validates it against its validate tags.
// Validation failures are returned as BindingErrors keyed by JSON field name.
//
//	var body struct {
//	    Name string `json:"name" validate:"required,min=2"`
//	}
//	if err := req.Bind(&body); err != nil { ... }
func (req *Request) Bind(v any) error {
	if req.raw.Body == nil {
		return errors.New("http: empty request body")
	}
	dec := json.NewDecoder(req.raw.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("http: decode body: %w", err)
	}

	err := validate.Struct(v)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	bag := make(BindingErrors, len(verrs))
	for _, fe := range verrs {
		bag[fe.Field()] = append(bag[fe.Field()], message(fe))
	}
	return bag
}

func message(fe validator.FieldError) string {
	if fe.Param() != "" {
		return fmt.Sprintf("failed the %s=%s rule", fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("failed the %s rule", fe.Tag())
}
