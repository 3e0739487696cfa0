package container

import (
	"reflect"
	"sync"
)

// Relations maps a target (a constructor function or a struct type) to the
// ordered registration keys its arguments are resolved from.
//
// Targets are matched by identity: types by type, functions by code pointer,
// pointers, maps and channels by address, anything else comparable by value.
// Closures created from the same function literal share a code pointer and
// therefore an identity.
type Relations struct {
	mu        sync.RWMutex
	relations map[any][]string
}

// DefaultRelations is the process-wide registry used unless a container or a
// call is given another one. It starts empty and is only ever changed by
// RegisterRelation.
var DefaultRelations = NewRelations()

// NewRelations returns an empty registry, useful to isolate tests or
// subsystems from DefaultRelations.
func NewRelations() *Relations {
	return &Relations{relations: make(map[any][]string)}
}

// RegisterRelation records keys as the dependencies of target in
// DefaultRelations.
//
//	container.RegisterRelation(NewUserService, "db", "logger")
//	c.Register("users", NewUserService) // built as NewUserService(db, logger)
func RegisterRelation(target any, keys ...string) error {
	return DefaultRelations.Register(target, keys...)
}

// Register records keys as the dependencies of target, replacing any list
// recorded earlier for the same target.
func (r *Relations) Register(target any, keys ...string) error {
	id, err := identityOf(target)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.relations[id] = append([]string(nil), keys...)
	return nil
}

// Lookup returns the keys recorded for target.
func (r *Relations) Lookup(target any) ([]string, bool) {
	id, err := identityOf(target)
	if err != nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys, ok := r.relations[id]
	if !ok {
		return nil, false
	}
	return append([]string(nil), keys...), true
}

// Len returns the number of targets with recorded relations.
func (r *Relations) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.relations)
}

// ── Identity ──────────────────────────────────────────────────────────────────

type funcIdentity struct {
	typ reflect.Type
	pc  uintptr
}

type refIdentity struct {
	typ  reflect.Type
	addr uintptr
}

func identityOf(target any) (any, error) {
	if target == nil {
		return nil, ErrUnidentifiableTarget
	}
	if t, ok := target.(reflect.Type); ok {
		return t, nil
	}

	v := reflect.ValueOf(target)
	switch v.Kind() {
	case reflect.Func:
		if v.IsNil() {
			return nil, ErrUnidentifiableTarget
		}
		return funcIdentity{typ: v.Type(), pc: v.Pointer()}, nil
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.UnsafePointer:
		return refIdentity{typ: v.Type(), addr: v.Pointer()}, nil
	}
	if v.Comparable() {
		return target, nil
	}
	return nil, ErrUnidentifiableTarget
}
