package container

import "sync"

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider groups related registrations.
//
// Register only registers; Boot runs after every provider has registered and
// may resolve anything.
//
//	type AppServiceProvider struct{ container.BaseProvider }
//
//	func (p *AppServiceProvider) Register(app *container.Container) {
//	    app.Register("logger", func(c *container.Container) (any, error) {
//	        cfg, err := container.Resolve[*config.Config](c, "config")
//	        if err != nil {
//	            return nil, err
//	        }
//	        return logging.New(cfg.Log)
//	    })
//	}
//
//	func (p *AppServiceProvider) Boot(app *container.Container) {
//	    container.MustResolve[*zap.Logger](app, "logger").Info("application booted")
//	}
type ServiceProvider interface {
	// Register adds the provider's factories to the container.
	Register(app *Container)

	// Boot is called after all providers are registered.
	Boot(app *Container)

	// Provides lists the keys a deferred provider registers.
	Provides() []string

	// IsDeferred defers Register until one of Provides() is first resolved.
	IsDeferred() bool
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable no-op implementation of Boot, Provides and
// IsDeferred.
type BaseProvider struct{}

func (p *BaseProvider) Boot(_ *Container)  {}
func (p *BaseProvider) Provides() []string { return nil }
func (p *BaseProvider) IsDeferred() bool   { return false }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry registers and boots ServiceProviders against one container,
// loading deferred providers on first use of a key they provide.
type ProviderRegistry struct {
	app *Container

	mu          sync.Mutex
	eager       []ServiceProvider
	registered  map[ServiceProvider]bool
	loaded      map[ServiceProvider]bool
	placeholder map[string]*Registration
	booted      bool
}

// NewProviderRegistry creates a registry bound to app.
func NewProviderRegistry(app *Container) *ProviderRegistry {
	return &ProviderRegistry{
		app:         app,
		registered:  make(map[ServiceProvider]bool),
		loaded:      make(map[ServiceProvider]bool),
		placeholder: make(map[string]*Registration),
	}
}

// Register adds a provider. Eager providers register immediately and are
// booted right away when the registry has already booted.
func (r *ProviderRegistry) Register(provider ServiceProvider) {
	r.mu.Lock()
	if r.registered[provider] {
		r.mu.Unlock()
		return
	}
	r.registered[provider] = true

	if provider.IsDeferred() {
		r.mu.Unlock()
		r.interceptDeferred(provider)
		return
	}

	r.eager = append(r.eager, provider)
	r.loaded[provider] = true
	booted := r.booted
	r.mu.Unlock()

	provider.Register(r.app)
	if booted {
		provider.Boot(r.app)
	}
}

// interceptDeferred registers a placeholder for each provided key. The first
// Get of any of them registers the provider for real and builds the
// registration it installed for that key.
func (r *ProviderRegistry) interceptDeferred(provider ServiceProvider) {
	for _, key := range provider.Provides() {
		key := key
		r.app.Register(key, Factory(func(c *Container) (any, error) {
			r.load(provider)

			reg, ok := c.t.local(key)
			r.mu.Lock()
			stale := reg == r.placeholder[key]
			r.mu.Unlock()
			if !ok || stale {
				return nil, &MissingRegistrationError{Key: key}
			}
			return c.t.build(key, reg, c.trail)
		}))

		reg, _ := r.app.t.local(key)
		r.mu.Lock()
		r.placeholder[key] = reg
		r.mu.Unlock()
	}
}

func (r *ProviderRegistry) load(provider ServiceProvider) {
	r.mu.Lock()
	if r.loaded[provider] {
		r.mu.Unlock()
		return
	}
	r.loaded[provider] = true
	booted := r.booted
	r.mu.Unlock()

	provider.Register(r.app)
	if booted {
		provider.Boot(r.app)
	}
}

// Boot calls Boot on all eager providers once.
func (r *ProviderRegistry) Boot() {
	r.mu.Lock()
	if r.booted {
		r.mu.Unlock()
		return
	}
	r.booted = true
	eager := append([]ServiceProvider(nil), r.eager...)
	r.mu.Unlock()

	for _, provider := range eager {
		provider.Boot(r.app)
	}
}

// Booted reports whether Boot has been called.
func (r *ProviderRegistry) Booted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.booted
}

// Providers returns the eager providers in registration order.
func (r *ProviderRegistry) Providers() []ServiceProvider {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ServiceProvider(nil), r.eager...)
}
