package container

import (
	"bytes"
	"fmt"
	"reflect"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ── Registration ──────────────────────────────────────────────────────────────

// Factory builds a value from the container it is registered in. The container
// passed in can resolve sibling and ancestor registrations.
type Factory func(c *Container) (any, error)

// Registration pairs a factory with its memoized instance. It is owned by the
// container that registered it and is replaced, never mutated, on re-register.
type Registration struct {
	factory any

	// owner is the trail instantiating the registration and done is closed
	// when it finishes. Both are guarded by flight; slot is the lock-free
	// read path.
	owner *trail
	done  chan struct{}
	slot  atomic.Pointer[memo]
}

type memo struct{ value any }

// Factory returns the value registered as the factory: a func taking the
// container or a constructible type.
func (r *Registration) Factory() any { return r.factory }

// Instance returns the memoized value and whether it has been produced yet.
func (r *Registration) Instance() (any, bool) {
	if m := r.slot.Load(); m != nil {
		return m.value, true
	}
	return nil, false
}

// ── Container ─────────────────────────────────────────────────────────────────

// table is the state shared by every handle onto one container.
type table struct {
	name      string
	parent    *table
	logger    atomic.Pointer[zap.Logger]
	relations *Relations

	mu            sync.RWMutex
	registrations map[string]*Registration
	order         []string
}

// Container is a keyed store of lazily built singletons.
//
// Lookups that miss locally are delegated to the parent, so a tree of
// containers forms nested scopes: a child sees everything its ancestors
// register and shadows any key it registers itself.
//
// A *Container is a handle. Factories receive a handle bound to the
// resolution in progress so that a key requested while it is already being
// built is reported as a CircularDependencyError instead of recursing.
type Container struct {
	t     *table
	trail *trail
}

// Option configures a Container at construction time.
type Option func(*Container)

// WithParent sets the container lookups are delegated to. The parent cannot be
// changed afterwards.
func WithParent(parent *Container) Option {
	return func(c *Container) {
		if parent != nil {
			c.t.parent = parent.t
		}
	}
}

// WithLogger sets the logger used for instantiation diagnostics. Children built
// with Child inherit it.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Container) {
		if logger != nil {
			c.t.logger.Store(logger)
		}
	}
}

// WithRelations sets the dependency metadata consulted when a constructible
// registration is instantiated. Defaults to DefaultRelations.
func WithRelations(r *Relations) Option {
	return func(c *Container) {
		if r != nil {
			c.t.relations = r
		}
	}
}

// WithName labels the container in log output.
func WithName(name string) Option {
	return func(c *Container) { c.t.name = name }
}

// New creates an empty container.
//
//	root := container.New(container.WithLogger(logger))
//	req  := container.New(container.WithParent(root))
func New(opts ...Option) *Container {
	c := &Container{t: &table{
		name:          "root",
		relations:     DefaultRelations,
		registrations: make(map[string]*Registration),
	}}
	c.t.logger.Store(zap.NewNop())
	for _, opt := range opts {
		opt(c)
	}
	if c.t.parent != nil && c.t.name == "root" {
		c.t.name = c.t.parent.name + ".child"
	}
	return c
}

// Child creates a container whose parent is c. The child inherits c's logger
// and relations unless opts override them.
func (c *Container) Child(opts ...Option) *Container {
	base := []Option{WithParent(c), WithLogger(c.Logger()), WithRelations(c.t.relations)}
	return New(append(base, opts...)...)
}

// Parent returns the container lookups are delegated to, or nil.
func (c *Container) Parent() *Container {
	if c.t.parent == nil {
		return nil
	}
	return &Container{t: c.t.parent}
}

// Name returns the container's label.
func (c *Container) Name() string { return c.t.name }

// Logger returns the logger the container reports instantiations to.
func (c *Container) Logger() *zap.Logger { return c.t.logger.Load() }

// SetLogger replaces the container's logger. Children created earlier keep the
// logger they inherited; nil is ignored.
func (c *Container) SetLogger(logger *zap.Logger) {
	if logger != nil {
		c.t.logger.Store(logger)
	}
}

// ── Registration ──────────────────────────────────────────────────────────────

// Register stores factory under key, replacing any previous registration for
// that key together with its cached instance. Ancestors are not touched.
//
// factory is either a function whose only parameter is *Container, returning
// T or (T, error), or a constructible value (see IsConstructible), which is
// built with the arguments declared through RegisterRelation.
//
//	c.Register("dsn", func(*container.Container) any { return os.Getenv("DSN") }).
//	  Register("db", NewDatabase)
//
// Register panics when factory is neither.
func (c *Container) Register(key string, factory any) *Container {
	if !isFactory(factory) && !IsConstructible(factory) {
		panic(fmt.Sprintf("container: [%s] factory must be a func(*Container) or a constructible type, got %T", key, factory))
	}
	c.put(key, &Registration{factory: factory})
	return c
}

// Instance registers a pre-built value. It is treated as already resolved.
func (c *Container) Instance(key string, value any) *Container {
	reg := &Registration{factory: Factory(func(*Container) (any, error) { return value, nil })}
	reg.slot.Store(&memo{value: value})
	c.put(key, reg)
	return c
}

func (c *Container) put(key string, reg *Registration) {
	c.t.mu.Lock()
	defer c.t.mu.Unlock()
	if _, exists := c.t.registrations[key]; !exists {
		c.t.order = append(c.t.order, key)
	}
	c.t.registrations[key] = reg
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Get returns the instance registered under key, building it on first use.
//
// A local registration wins; otherwise the lookup is delegated to the parent
// and its result returned unchanged (the instance stays cached only in the
// container that registered it). Repeated calls return the same value until
// the key is registered again. A failed instantiation caches nothing.
//
// A key requested again while it is being built, directly or through any
// container the factory captured, fails with CircularDependencyError. So do
// two goroutines that each wait for an instance the other is building.
func (c *Container) Get(key string) (any, error) {
	if v, ok := c.t.memoized(key); ok {
		return v, nil
	}
	tr, leave := c.enter()
	defer leave()
	return c.t.get(key, tr)
}

// MustGet is like Get but panics on error.
func (c *Container) MustGet(key string) any {
	v, err := c.Get(key)
	if err != nil {
		panic(err)
	}
	return v
}

func (t *table) get(key string, tr *trail) (any, error) {
	reg, ok := t.local(key)
	if !ok {
		if t.parent != nil {
			return t.parent.get(key, tr)
		}
		return nil, &MissingRegistrationError{Key: key}
	}

	if v, ok := reg.Instance(); ok {
		return v, nil
	}

	if err := tr.push(t, key); err != nil {
		return nil, err
	}
	defer tr.pop()

	return t.build(key, reg, tr)
}

// build instantiates reg unless it is already memoized. Concurrent callers wait
// for the goroutine that got there first.
func (t *table) build(key string, reg *Registration, tr *trail) (v any, err error) {
	owner, err := reg.acquire(key, tr)
	if err != nil || !owner {
		v, _ = reg.Instance()
		return v, err
	}

	built := false
	defer func() { reg.release(v, built) }()

	logger := t.log()
	start := time.Now()
	v, err = t.instantiate(key, reg, &Container{t: t, trail: tr})
	if err != nil {
		logger.Debug("container: instantiation failed",
			zap.String("container", t.name),
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, err
	}
	built = true

	logger.Debug("container: instantiated",
		zap.String("container", t.name),
		zap.String("key", key),
		zap.String("type", fmt.Sprintf("%T", v)),
		zap.Duration("took", time.Since(start)),
	)
	return v, nil
}

// instantiate dispatches between constructor injection and plain factories.
func (t *table) instantiate(key string, reg *Registration, c *Container) (any, error) {
	if IsConstructible(reg.factory) {
		return ConstructWithDependencies(reg.factory, c)
	}

	v, err := invokeFactory(reg.factory, c)
	if err != nil && !passthrough(err) {
		err = &FactoryError{Key: key, Cause: err}
	}
	return v, err
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func (t *table) log() *zap.Logger { return t.logger.Load() }

// memoized returns the instance of the registration key resolves to, if it
// has been built.
func (t *table) memoized(key string) (any, bool) {
	for ; t != nil; t = t.parent {
		if reg, ok := t.local(key); ok {
			return reg.Instance()
		}
	}
	return nil, false
}

func (t *table) local(key string) (*Registration, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	reg, ok := t.registrations[key]
	return reg, ok
}

// Has reports whether key is registered here or in any ancestor.
func (c *Container) Has(key string) bool {
	for t := c.t; t != nil; t = t.parent {
		t.mu.RLock()
		_, ok := t.registrations[key]
		t.mu.RUnlock()
		if ok {
			return true
		}
	}
	return false
}

// Resolved reports whether key is registered locally and already built.
func (c *Container) Resolved(key string) bool {
	reg, ok := c.t.local(key)
	if !ok {
		return false
	}
	_, built := reg.Instance()
	return built
}

// Registrations returns a copy of the local registration table. Ancestors are
// not consulted.
func (c *Container) Registrations() map[string]*Registration {
	c.t.mu.RLock()
	defer c.t.mu.RUnlock()
	out := make(map[string]*Registration, len(c.t.registrations))
	for k, r := range c.t.registrations {
		out[k] = r
	}
	return out
}

// Keys returns the local registration keys in the order they were first
// registered.
func (c *Container) Keys() []string {
	c.t.mu.RLock()
	defer c.t.mu.RUnlock()
	return append([]string(nil), c.t.order...)
}

// ── Resolution trail ──────────────────────────────────────────────────────────

// trail is the stack of keys being built on one goroutine. waiting and
// waitKey record the in-flight registration it is blocked on and are guarded
// by flight.
type trail struct {
	mu     sync.Mutex
	frames []frame

	waiting *Registration
	waitKey string
}

type frame struct {
	t   *table
	key string
}

// trails maps a goroutine id to the trail of the resolution running on it.
var trails sync.Map

// flight guards the owner and done fields of every Registration and the
// waiting edges of every trail.
var flight sync.Mutex

// enter returns the trail of the resolution already running on this
// goroutine, so containers captured by a factory share it. Otherwise it starts
// one, seeded with the frames of the handle's own resolution when a factory
// hands its container to another goroutine.
func (c *Container) enter() (*trail, func()) {
	id := goroutineID()
	if tr, ok := trails.Load(id); ok {
		return tr.(*trail), func() {}
	}
	tr := &trail{}
	if c.trail != nil {
		tr.frames = c.trail.snapshot()
	}
	trails.Store(id, tr)
	return tr, func() { trails.Delete(id) }
}

func (tr *trail) push(t *table, key string) error {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	for _, f := range tr.frames {
		if f.t == t && f.key == key {
			return &CircularDependencyError{Path: append(tr.keysLocked(), key)}
		}
	}
	tr.frames = append(tr.frames, frame{t: t, key: key})
	return nil
}

func (tr *trail) pop() {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.frames = tr.frames[:len(tr.frames)-1]
}

func (tr *trail) snapshot() []frame {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return append([]frame(nil), tr.frames...)
}

func (tr *trail) keys() []string {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.keysLocked()
}

func (tr *trail) keysLocked() []string {
	path := make([]string, 0, len(tr.frames)+1)
	for _, f := range tr.frames {
		path = append(path, f.key)
	}
	return path
}

// acquire makes tr the owner of reg's instantiation and reports true, or
// reports false once another owner has memoized it. While another trail owns
// reg it blocks, unless that owner is itself waiting, directly or through
// others, on tr.
func (reg *Registration) acquire(key string, tr *trail) (bool, error) {
	for {
		flight.Lock()
		tr.waiting, tr.waitKey = nil, ""
		if _, ok := reg.Instance(); ok {
			flight.Unlock()
			return false, nil
		}
		if reg.owner == nil {
			reg.owner, reg.done = tr, make(chan struct{})
			flight.Unlock()
			return true, nil
		}
		if path := tr.deadlock(key, reg); path != nil {
			flight.Unlock()
			return false, &CircularDependencyError{Path: path}
		}
		tr.waiting, tr.waitKey = reg, key
		done := reg.done
		flight.Unlock()

		<-done
	}
}

// release ends the current ownership of reg, memoizing v when built, and
// wakes the goroutines waiting for it.
func (reg *Registration) release(v any, built bool) {
	flight.Lock()
	defer flight.Unlock()
	if built {
		reg.slot.Store(&memo{value: v})
	}
	close(reg.done)
	reg.owner, reg.done = nil, nil
}

// deadlock follows the wait-for chain that starts at reg's owner and returns
// the key path when it leads back to tr. Callers hold flight.
func (tr *trail) deadlock(key string, reg *Registration) []string {
	path := tr.keys()
	if len(path) == 0 || path[len(path)-1] != key {
		path = append(path, key)
	}
	for o := reg.owner; o != nil; {
		if o == tr {
			return path
		}
		if o.waiting == nil {
			return nil
		}
		path = append(path, o.waitKey)
		o = o.waiting.owner
	}
	return nil
}

// goroutineID parses the current goroutine's id from its stack header,
// "goroutine 18 [running]:".
func goroutineID() uint64 {
	var buf [64]byte
	b := bytes.TrimPrefix(buf[:runtime.Stack(buf[:], false)], []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, _ := strconv.ParseUint(string(b), 10, 64)
	return id
}

// ── Reflect helpers ───────────────────────────────────────────────────────────

// TypeOf returns the reflect.Type of T. Registering it makes T constructible:
//
//	c.Register("svc", container.TypeOf[*Service]())
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// ── Generics helper ───────────────────────────────────────────────────────────

// Resolve calls Get and type-asserts the result.
//
//	db, err := container.Resolve[*sql.DB](c, "db")
func Resolve[T any](c *Container, key string) (T, error) {
	var zero T
	instance, err := c.Get(key)
	if err != nil {
		return zero, err
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, fmt.Errorf("container: [%s] resolved to %T, not %v", key, instance, TypeOf[T]())
	}
	return typed, nil
}

// MustResolve is like Resolve but panics on error.
func MustResolve[T any](c *Container, key string) T {
	typed, err := Resolve[T](c, key)
	if err != nil {
		panic(err)
	}
	return typed
}
