// Package http provides JSON request and response helpers plus handlers that
// expose the container tree over HTTP.
//
// # Request
//
//	req := gohttp.NewRequest(r)
//
//	var body struct {
//	    Name string `json:"name" validate:"required,min=2"`
//	}
//	if err := req.Bind(&body); err != nil {
//	    var bag gohttp.BindingErrors
//	    if errors.As(err, &bag) {
//	        res.ValidationError(bag) // 422 {"errors": {"name": [...]}}
//	    }
//	}
//
//	scope := req.Scope() // per-request container from routing.Scoped
//
// # Response
//
//	res := gohttp.NewResponse(w)
//	res.Success(v)        // 200 {"data": v}
//	res.Created(v)        // 201 {"data": v}
//	res.NoContent()       // 204
//	res.NotFound()        // 404 {"message": "Not found."}
//	res.Problem(err)      // container error → status, see StatusOf
//
// # Container introspection
//
//	router.Get("/bindings", gohttp.BindingsHandler(app.Container))
//	router.Get("/bindings/{key}", gohttp.ResolveHandler(app.Container))
package http
