package container

// RelationBuilder implements the fluent form of RegisterRelation.
//
//	container.For(NewPhotoController).Needs("filesystem", "logger")
type RelationBuilder struct {
	relations *Relations
	target    any
}

// For starts a relation for target in DefaultRelations.
func For(target any) *RelationBuilder {
	return DefaultRelations.For(target)
}

// For starts a relation for target in r.
func (r *Relations) For(target any) *RelationBuilder {
	return &RelationBuilder{relations: r, target: target}
}

// Needs records keys, in order, as the target's constructor arguments.
func (b *RelationBuilder) Needs(keys ...string) error {
	return b.relations.Register(b.target, keys...)
}

// MustNeed is like Needs but panics when the target has no stable identity.
// Intended for package-level var blocks and init functions.
func (b *RelationBuilder) MustNeed(keys ...string) {
	if err := b.Needs(keys...); err != nil {
		panic(err)
	}
}
