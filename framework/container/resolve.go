package container

// ResolveOption configures ResolveDependencies.
type ResolveOption func(*resolveOptions)

type resolveOptions struct {
	safe      bool
	relations *Relations
}

// WithSafeResolve skips the Has check made before each key is resolved. The
// key is still resolved with Get, which fails for keys missing from the chain.
func WithSafeResolve() ResolveOption {
	return func(o *resolveOptions) { o.safe = true }
}

// FromRelations looks target up in r instead of DefaultRelations.
func FromRelations(r *Relations) ResolveOption {
	return func(o *resolveOptions) {
		if r != nil {
			o.relations = r
		}
	}
}

// ResolveDependencies resolves the keys recorded for target, in order.
//
// ok is false when target has no recorded relation; callers treat that as an
// empty argument list. Without WithSafeResolve a key unknown to c fails with
// UnresolvedDependencyError before any later key is resolved.
func ResolveDependencies(target any, c *Container, opts ...ResolveOption) (values []any, ok bool, err error) {
	o := resolveOptions{relations: DefaultRelations}
	for _, opt := range opts {
		opt(&o)
	}

	keys, ok := o.relations.Lookup(target)
	if !ok {
		return nil, false, nil
	}

	values = make([]any, len(keys))
	for i, key := range keys {
		if !o.safe && !c.Has(key) {
			return nil, true, &UnresolvedDependencyError{Key: key}
		}
		v, err := c.Get(key)
		if err != nil {
			return nil, true, err
		}
		values[i] = v
	}
	return values, true, nil
}
