// Package container provides a keyed registry of lazily built singletons with
// parent/child scoping and constructor injection.
//
// # Registering and resolving
//
// A registration is a factory stored under a string key. Nothing is built
// until the first Get; the result is then cached for the life of the
// registration.
//
//	c := container.New()
//	c.Register("config", func(*container.Container) (*config.Config, error) { return config.Load() })
//	c.Register("greeting", func(c *container.Container) (any, error) {
//	    cfg, err := container.Resolve[*config.Config](c, "config")
//	    if err != nil {
//	        return nil, err
//	    }
//	    return "hello from " + cfg.App.Name, nil
//	})
//
//	v, err := c.Get("greeting")            // any
//	s := container.MustResolve[string](c, "greeting")
//
// Registering a key again drops the cached instance; the next Get uses the
// new factory. Errors are typed: MissingRegistrationError,
// UnresolvedDependencyError, CircularDependencyError, ConstructionError and
// FactoryError, each matching a sentinel through errors.Is.
//
// # Scopes
//
// A container created WithParent (or with Child) falls back to its parent for
// keys it does not register itself. Instances stay cached where they were
// registered, so a per-request child shares the application's singletons.
//
//	req := app.Child()
//	req.Instance("request", r)
//	req.Get("config")  // delegated to app
//
// # Constructor injection
//
// A constructor function (anything that does not take *Container as its only
// parameter) or a struct type is built with the values of the keys recorded
// for it:
//
//	func NewUserService(db *sql.DB, log *zap.Logger) *UserService { ... }
//
//	container.RegisterRelation(NewUserService, "db", "logger")
//	// or: container.For(NewUserService).Needs("db", "logger")
//	c.Register("users", NewUserService)
//
//	container.For(container.TypeOf[*Mailer]()).Needs("smtp")
//	c.Register("mailer", container.TypeOf[*Mailer]())
//
// # Destructuring
//
// Bindings exposes registrations as named values:
//
//	var deps struct {
//	    Config *config.Config
//	    Log    *zap.Logger `bind:"logger"`
//	}
//	err := container.Destructurable(c).Destructure(&deps)
//
// # Service Providers
//
//	type AppServiceProvider struct{ container.BaseProvider }
//
//	func (p *AppServiceProvider) Register(app *container.Container) {
//	    app.Register("mailer", NewMailer)
//	}
//
//	registry := container.NewProviderRegistry(c)
//	registry.Register(&AppServiceProvider{})
//	registry.Boot()
package container
