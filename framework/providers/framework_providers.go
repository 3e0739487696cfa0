package providers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/km-arc/go-scope/framework/config"
	"github.com/km-arc/go-scope/framework/container"
	gohttp "github.com/km-arc/go-scope/framework/http"
	"github.com/km-arc/go-scope/framework/logging"
	"github.com/km-arc/go-scope/framework/routing"
)

// Keys bound by the framework providers.
const (
	ConfigKey = "config"
	LoggerKey = "logger"
	RouterKey = "router"
	ServerKey = "server"
)

func init() {
	container.For(NewServer).MustNeed(ConfigKey, RouterKey)
}

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider loads configuration from .env, APP_CONFIG and the
// environment.
//
// Bound keys:
//   - "config" → *config.Config
type ConfigServiceProvider struct {
	container.BaseProvider
	EnvFiles []string
}

func (p *ConfigServiceProvider) Register(app *container.Container) {
	envFiles := p.EnvFiles
	app.Register(ConfigKey, func(*container.Container) (*config.Config, error) {
		return config.Load(envFiles...)
	})
}

// ── LoggingServiceProvider ────────────────────────────────────────────────────

// LoggingServiceProvider is deferred: the logger is only built, and the
// configuration only loaded, once something asks for "logger". The built
// logger also becomes the application container's own logger, so request
// scopes created afterwards inherit it.
//
// Bound keys:
//   - "logger" → *zap.Logger
type LoggingServiceProvider struct {
	container.BaseProvider
}

func (p *LoggingServiceProvider) IsDeferred() bool   { return true }
func (p *LoggingServiceProvider) Provides() []string { return []string{LoggerKey} }

func (p *LoggingServiceProvider) Register(app *container.Container) {
	app.Register(LoggerKey, func(c *container.Container) (*zap.Logger, error) {
		cfg, err := container.Resolve[*config.Config](c, ConfigKey)
		if err != nil {
			return nil, err
		}
		logger, err := logging.New(cfg.Log)
		if err != nil {
			return nil, err
		}
		app.SetLogger(logger)
		return logger, nil
	})
}

// ── RoutingServiceProvider ────────────────────────────────────────────────────

// RoutingServiceProvider registers the HTTP router. Every request runs in its
// own child of the application container (see routing.Scoped). In debug mode
// the container tree is served under /_scope.
//
// Bound keys:
//   - "router" → *routing.Router
type RoutingServiceProvider struct {
	container.BaseProvider
}

func (p *RoutingServiceProvider) Register(app *container.Container) {
	app.Register(RouterKey, func(c *container.Container) (*routing.Router, error) {
		cfg, err := container.Resolve[*config.Config](c, ConfigKey)
		if err != nil {
			return nil, err
		}
		logger, err := container.Resolve[*zap.Logger](c, LoggerKey)
		if err != nil {
			return nil, err
		}

		router := routing.New(logger)
		router.Middleware(routing.Scoped(app))
		if cfg.App.Debug {
			router.Prefix("/_scope", func(r *routing.Router) {
				r.Get("/bindings", gohttp.BindingsHandler(app))
				r.Get("/bindings/{key}", gohttp.ResolveHandler(app))
			})
		}
		return router, nil
	})
}

// ── ServerServiceProvider ─────────────────────────────────────────────────────

// ServerServiceProvider registers NewServer by constructor injection.
//
// Bound keys:
//   - "server" → *http.Server
type ServerServiceProvider struct {
	container.BaseProvider
}

func (p *ServerServiceProvider) Register(app *container.Container) {
	app.Register(ServerKey, NewServer)
}

// NewServer builds the HTTP server for cfg serving router.
func NewServer(cfg *config.Config, router *routing.Router) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
	}
}
