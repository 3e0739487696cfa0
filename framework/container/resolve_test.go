package container_test

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-scope/framework/container"
)

type resolveTarget struct{}

func TestResolveDependencies_NoMetadata(t *testing.T) {
	r := container.NewRelations()
	c := container.New()

	values, ok, err := container.ResolveDependencies(resolveTarget{}, c, container.FromRelations(r))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, values)
}

func TestResolveDependencies_InOrder(t *testing.T) {
	r := container.NewRelations()
	target := container.TypeOf[resolveTarget]()
	require.NoError(t, r.Register(target, "k2", "k1"))

	c := container.New()
	c.Instance("k1", "one").Instance("k2", "two")

	values, ok, err := container.ResolveDependencies(target, c, container.FromRelations(r))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []any{"two", "one"}, values)
}

func TestResolveDependencies_EmptyRelation(t *testing.T) {
	r := container.NewRelations()
	target := container.TypeOf[resolveTarget]()
	require.NoError(t, r.Register(target))

	values, ok, err := container.ResolveDependencies(target, container.New(), container.FromRelations(r))
	require.NoError(t, err)
	assert.True(t, ok, "an empty relation is still metadata")
	assert.Empty(t, values)
}

func TestResolveDependencies_UnresolvedFailsFast(t *testing.T) {
	r := container.NewRelations()
	target := container.TypeOf[resolveTarget]()
	require.NoError(t, r.Register(target, "present", "absent", "later"))

	var laterCalls atomic.Int32
	c := container.New()
	c.Instance("present", 1)
	c.Register("later", func(*container.Container) any {
		laterCalls.Add(1)
		return 3
	})

	_, ok, err := container.ResolveDependencies(target, c, container.FromRelations(r))
	assert.True(t, ok)

	var unresolved *container.UnresolvedDependencyError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, "absent", unresolved.Key)
	assert.ErrorIs(t, err, container.ErrUnresolvedDependency)
	assert.EqualError(t, err, "container: unresolved dependency: absent")
	assert.Zero(t, laterCalls.Load(), "keys after the missing one must not be resolved")
}

func TestResolveDependencies_SafeResolveStillFailsOnMissing(t *testing.T) {
	r := container.NewRelations()
	target := container.TypeOf[resolveTarget]()
	require.NoError(t, r.Register(target, "absent"))

	values, _, err := container.ResolveDependencies(target, container.New(),
		container.FromRelations(r), container.WithSafeResolve())

	assert.Nil(t, values, "never substitutes a nil value")
	var missing *container.MissingRegistrationError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "absent", missing.Key)

	var unresolved *container.UnresolvedDependencyError
	assert.False(t, errors.As(err, &unresolved))
}

func TestResolveDependencies_SafeResolveFromAncestor(t *testing.T) {
	r := container.NewRelations()
	target := container.TypeOf[resolveTarget]()
	require.NoError(t, r.Register(target, "inherited"))

	root := container.New()
	root.Instance("inherited", "from-root")
	child := root.Child()

	values, ok, err := container.ResolveDependencies(target, child,
		container.FromRelations(r), container.WithSafeResolve())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []any{"from-root"}, values)
}

func TestResolveDependencies_PropagatesFactoryError(t *testing.T) {
	r := container.NewRelations()
	target := container.TypeOf[resolveTarget]()
	require.NoError(t, r.Register(target, "loop"))

	c := container.New()
	c.Register("loop", func(c *container.Container) (any, error) { return c.Get("loop") })

	_, _, err := container.ResolveDependencies(target, c, container.FromRelations(r))
	assert.ErrorIs(t, err, container.ErrCircularDependency)
}
