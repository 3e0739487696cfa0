package main

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/km-arc/go-scope/framework/config"
	"github.com/km-arc/go-scope/framework/container"
	gohttp "github.com/km-arc/go-scope/framework/http"
	"github.com/km-arc/go-scope/framework/providers"
	"github.com/km-arc/go-scope/framework/routing"
)

// ── Services ─────────────────────────────────────────────────────────────────

// Greeter is an application-wide singleton built by constructor injection.
type Greeter struct {
	app    string
	logger *zap.Logger
}

func NewGreeter(cfg *config.Config, logger *zap.Logger) *Greeter {
	return &Greeter{app: cfg.App.Name, logger: logger}
}

func (g *Greeter) Greet(name string) string {
	g.logger.Debug("greeting", zap.String("name", name))
	return fmt.Sprintf("Hello %s, from %s!", name, g.app)
}

func init() {
	container.For(NewGreeter).MustNeed(providers.ConfigKey, providers.LoggerKey)
}

// Guestbook counts greetings per name for the life of the process. Its zero
// value is ready to use.
type Guestbook struct {
	mu     sync.Mutex
	visits map[string]int
}

// Sign records a visit by name and returns how many it has made.
func (g *Guestbook) Sign(name string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.visits == nil {
		g.visits = make(map[string]int)
	}
	g.visits[name]++
	return g.visits[name]
}

// Forget drops name and reports whether it had signed.
func (g *Guestbook) Forget(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.visits[name]
	delete(g.visits, name)
	return ok
}

// AppServiceProvider binds the demo's own services.
type AppServiceProvider struct {
	container.BaseProvider
}

func (p *AppServiceProvider) Register(app *container.Container) {
	app.Register("greeter", NewGreeter)
	app.Register("guestbook", container.TypeOf[*Guestbook]())
}

func (p *AppServiceProvider) Boot(app *container.Container) {
	logger := container.MustResolve[*zap.Logger](app, providers.LoggerKey)
	logger.Debug("application booted", zap.Strings("bindings", app.Keys()))
}

// ── Routes ───────────────────────────────────────────────────────────────────

// deps is what a request handler pulls out of its scope.
type deps struct {
	Greeter   *Greeter
	Guestbook *Guestbook
	RequestID string `bind:"request.id"`
}

func scopeDeps(r *http.Request) (deps, error) {
	var d deps
	err := container.Destructurable(routing.Container(r)).Destructure(&d)
	return d, err
}

func registerRoutes(router *routing.Router) {
	router.Handle("/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		gohttp.NewResponse(w).Success(map[string]any{"status": "ok"})
	}))

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		res := gohttp.NewResponse(w)
		d, err := scopeDeps(r)
		if err != nil {
			res.Problem(err)
			return
		}
		name := r.URL.Query().Get("name")
		if name == "" {
			name = "stranger"
		}
		res.Success(map[string]any{
			"message":    d.Greeter.Greet(name),
			"request_id": d.RequestID,
		})
	})

	router.Post("/greetings", func(w http.ResponseWriter, r *http.Request) {
		req := gohttp.NewRequest(r)
		res := gohttp.NewResponse(w)

		var body struct {
			Name string `json:"name" validate:"required,min=2,max=100"`
		}
		if err := req.Bind(&body); err != nil {
			var bag gohttp.BindingErrors
			if errors.As(err, &bag) {
				res.ValidationError(bag)
				return
			}
			res.Error(http.StatusBadRequest, err.Error())
			return
		}

		d, err := scopeDeps(r)
		if err != nil {
			res.Problem(err)
			return
		}
		res.Created(map[string]any{
			"message":    d.Greeter.Greet(body.Name),
			"request_id": d.RequestID,
		})
	})

	router.Put("/greetings/{name}", func(w http.ResponseWriter, r *http.Request) {
		req := gohttp.NewRequest(r)
		res := gohttp.NewResponse(w)
		d, err := scopeDeps(r)
		if err != nil {
			res.Problem(err)
			return
		}
		name := req.Param("name")
		res.Success(map[string]any{
			"message":    d.Greeter.Greet(name),
			"visits":     d.Guestbook.Sign(name),
			"request_id": d.RequestID,
		})
	})

	router.Delete("/greetings/{name}", func(w http.ResponseWriter, r *http.Request) {
		req := gohttp.NewRequest(r)
		res := gohttp.NewResponse(w)
		d, err := scopeDeps(r)
		if err != nil {
			res.Problem(err)
			return
		}
		if !d.Guestbook.Forget(req.Param("name")) {
			res.NotFound("No greetings for " + req.Param("name") + ".")
			return
		}
		res.NoContent()
	})
}
