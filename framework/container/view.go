package container

import (
	"fmt"
	"reflect"
)

// Bindings is a read-through view of a container's registrations as named
// properties. It holds no state of its own, so wrapping is cheap and can be
// repeated freely.
//
// Any key reachable from the container can be read, but only the container's
// own keys are enumerated: ancestor registrations are readable by name and do
// not show up in Keys or Values.
type Bindings struct {
	c *Container
}

// Destructurable wraps c in a Bindings view.
//
//	var deps struct {
//	    Config *config.Config
//	    Log    *zap.Logger `bind:"logger"`
//	}
//	err := container.Destructurable(c).Destructure(&deps)
func Destructurable(c *Container) *Bindings {
	return &Bindings{c: c}
}

// Wrap is an alias for Destructurable.
func Wrap(c *Container) *Bindings { return Destructurable(c) }

// Get returns the value registered under name anywhere in the chain.
func (b *Bindings) Get(name string) (any, error) {
	if !b.c.Has(name) {
		return nil, &MissingRegistrationError{Key: name}
	}
	return b.c.Get(name)
}

// Has reports whether name is reachable through the container chain.
func (b *Bindings) Has(name string) bool { return b.c.Has(name) }

// Keys returns the wrapped container's local keys in registration order.
func (b *Bindings) Keys() []string { return b.c.Keys() }

// Values resolves every key returned by Keys, in the same order.
func (b *Bindings) Values() ([]any, error) {
	keys := b.Keys()
	values := make([]any, 0, len(keys))
	for _, key := range keys {
		v, err := b.Get(key)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

// Destructure fills the exported fields of the struct dst points to. Each
// field reads the key named by its `bind` tag, or its own name with the first
// letter lower-cased; `bind:"-"` leaves the field alone. The first key that
// cannot be resolved, or whose value does not fit the field, stops the fill.
func (b *Bindings) Destructure(dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("container: Destructure needs a non-nil pointer to struct, got %T", dst)
	}
	out := rv.Elem()

	for _, f := range structFields.get(out.Type()) {
		if f.key == "" {
			continue
		}
		v, err := b.Get(f.key)
		if err != nil {
			return err
		}
		av, err := argument(v, f.typ, f.index)
		if err != nil {
			return fmt.Errorf("container: field %s (key %q): %w", f.name, f.key, err)
		}
		out.Field(f.index).Set(av)
	}
	return nil
}
