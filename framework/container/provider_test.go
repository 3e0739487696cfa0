package container_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-scope/framework/container"
)

// ── stub providers ────────────────────────────────────────────────────────────

type eagerProvider struct {
	container.BaseProvider
	registerCalls int
	bootCalls     int
}

func (p *eagerProvider) Register(app *container.Container) {
	p.registerCalls++
	app.Register("eager-svc", func(*container.Container) any { return "eager" })
}

func (p *eagerProvider) Boot(*container.Container) { p.bootCalls++ }

// deferredProvider is lazy: registered when "deferred-svc" is first resolved.
type deferredProvider struct {
	container.BaseProvider
	registerCalls int
	bootCalls     int
	builds        int
}

func (p *deferredProvider) Register(app *container.Container) {
	p.registerCalls++
	app.Register("deferred-svc", func(*container.Container) any {
		p.builds++
		return "deferred-value"
	})
	app.Register("deferred-other", func(c *container.Container) (any, error) {
		v, err := c.Get("deferred-svc")
		if err != nil {
			return nil, err
		}
		return v.(string) + "+other", nil
	})
}

func (p *deferredProvider) Boot(*container.Container) { p.bootCalls++ }
func (p *deferredProvider) IsDeferred() bool          { return true }
func (p *deferredProvider) Provides() []string {
	return []string{"deferred-svc", "deferred-other"}
}

// liarProvider claims a key it never registers.
type liarProvider struct{ container.BaseProvider }

func (p *liarProvider) Register(*container.Container) {}
func (p *liarProvider) IsDeferred() bool              { return true }
func (p *liarProvider) Provides() []string            { return []string{"phantom"} }

type multiProvider struct{ container.BaseProvider }

func (p *multiProvider) Register(app *container.Container) {
	app.Register("alpha", func(*container.Container) any { return "α" }).
		Register("beta", func(*container.Container) any { return "β" })
}

// ── ProviderRegistry ──────────────────────────────────────────────────────────

func TestRegistry_EagerProvider(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)

	p := &eagerProvider{}
	reg.Register(p)
	assert.Equal(t, 1, p.registerCalls, "Register() runs immediately for eager providers")
	assert.Zero(t, p.bootCalls, "Boot() waits for registry.Boot()")

	reg.Boot()
	assert.Equal(t, 1, p.bootCalls)
	assert.Equal(t, "eager", c.MustGet("eager-svc"))
}

func TestRegistry_BootIsIdempotent(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)
	p := &eagerProvider{}
	reg.Register(p)

	assert.False(t, reg.Booted())
	reg.Boot()
	reg.Boot()
	assert.True(t, reg.Booted())
	assert.Equal(t, 1, p.bootCalls)
}

func TestRegistry_DuplicateRegisterIgnored(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)
	p := &eagerProvider{}

	reg.Register(p)
	reg.Register(p)
	assert.Equal(t, 1, p.registerCalls)
	assert.Len(t, reg.Providers(), 1)
}

func TestRegistry_RegisterAfterBootBootsImmediately(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)
	reg.Boot()

	p := &eagerProvider{}
	reg.Register(p)
	assert.Equal(t, 1, p.bootCalls)
}

// ── Deferred providers ────────────────────────────────────────────────────────

func TestRegistry_DeferredProviderLoadsOnFirstGet(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)
	p := &deferredProvider{}
	reg.Register(p)
	reg.Boot()

	assert.Zero(t, p.registerCalls, "deferred Register() waits for first Get")
	assert.True(t, c.Has("deferred-svc"))

	got, err := c.Get("deferred-svc")
	require.NoError(t, err)
	assert.Equal(t, "deferred-value", got)
	assert.Equal(t, 1, p.registerCalls)
	assert.Equal(t, 1, p.bootCalls, "registry already booted, so provider boots on load")

	assert.Equal(t, "deferred-value", c.MustGet("deferred-svc"))
	assert.Equal(t, 1, p.builds, "real registration is built once")
}

func TestRegistry_DeferredProviderLoadsOnce(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)
	p := &deferredProvider{}
	reg.Register(p)

	assert.Equal(t, "deferred-value+other", c.MustGet("deferred-other"))
	assert.Equal(t, "deferred-value", c.MustGet("deferred-svc"))
	assert.Equal(t, 1, p.registerCalls)
	assert.Equal(t, 1, p.builds)
	assert.Zero(t, p.bootCalls, "not booted yet")
}

func TestRegistry_DeferredProviderFromChild(t *testing.T) {
	root := container.New()
	reg := container.NewProviderRegistry(root)
	reg.Register(&deferredProvider{})

	child := root.Child()
	assert.Equal(t, "deferred-value", child.MustGet("deferred-svc"))
	assert.True(t, root.Resolved("deferred-svc"))
}

func TestRegistry_DeferredProviderMissingKey(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)
	reg.Register(&liarProvider{})

	_, err := c.Get("phantom")
	var missing *container.MissingRegistrationError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "phantom", missing.Key)
}

func TestRegistry_ProvidersReturnsEagerOnly(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)
	reg.Register(&eagerProvider{})
	reg.Register(&deferredProvider{})

	assert.Len(t, reg.Providers(), 1)
}

func TestRegistry_MultipleProviders(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)
	reg.Register(&multiProvider{})
	reg.Register(&eagerProvider{})
	reg.Boot()

	assert.Equal(t, "α", c.MustGet("alpha"))
	assert.Equal(t, "β", c.MustGet("beta"))
	assert.Equal(t, "eager", c.MustGet("eager-svc"))
}

// ── BaseProvider defaults ─────────────────────────────────────────────────────

func TestBaseProvider_Defaults(t *testing.T) {
	var p container.BaseProvider
	assert.NotPanics(t, func() { p.Boot(container.New()) })
	assert.False(t, p.IsDeferred())
	assert.Empty(t, p.Provides())
}
