package container

import (
	"fmt"
	"reflect"
	"sync"
)

var (
	containerType = reflect.TypeOf((*Container)(nil))
	errorType     = reflect.TypeOf((*error)(nil)).Elem()
)

// constructible memoizes IsConstructible per target identity for the life of
// the process. Classified values are functions and types, which live as long.
var constructible sync.Map

// IsConstructible reports whether v is built through constructor injection
// rather than called as a factory:
//
//   - a reflect.Type of a struct or pointer-to-struct (see TypeOf), built by
//     assigning its arguments to the exported fields in order;
//   - a function that does not take *Container as its only parameter and
//     returns T or (T, error), called with its arguments.
func IsConstructible(v any) bool {
	switch f := v.(type) {
	case nil, Factory, func(*Container) any, func(*Container) (any, error):
		return false
	case reflect.Type:
		return isStructType(f)
	}

	id, err := identityOf(v)
	if err != nil {
		return tryConstructor(v)
	}
	if ok, cached := constructible.Load(id); cached {
		return ok.(bool)
	}
	ok := tryConstructor(v)
	constructible.Store(id, ok)
	return ok
}

// tryConstructor inspects v reflectively; anything that makes reflection
// panic means "not constructible".
func tryConstructor(v any) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	fn := reflect.ValueOf(v)
	if fn.Kind() != reflect.Func || fn.IsNil() {
		return false
	}
	info, err := inspectFunc(fn)
	return err == nil && !info.takesContainer()
}

func isStructType(t reflect.Type) bool {
	if t == nil {
		return false
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}

// isFactory reports whether v is called with the container.
func isFactory(v any) bool {
	switch f := v.(type) {
	case nil:
		return false
	case Factory:
		return f != nil
	case func(*Container) any:
		return f != nil
	case func(*Container) (any, error):
		return f != nil
	}
	fn := reflect.ValueOf(v)
	if fn.Kind() != reflect.Func || fn.IsNil() {
		return false
	}
	info, err := inspectFunc(fn)
	return err == nil && info.takesContainer()
}

func invokeFactory(factory any, c *Container) (any, error) {
	switch f := factory.(type) {
	case Factory:
		return f(c)
	case func(*Container) (any, error):
		return f(c)
	case func(*Container) any:
		return f(c), nil
	}
	info, err := inspectFunc(reflect.ValueOf(factory))
	if err != nil {
		return nil, err
	}
	return info.call([]reflect.Value{reflect.ValueOf(c)})
}

// ── Function metadata ─────────────────────────────────────────────────────────

// callable holds what is needed to invoke a factory or constructor function.
type callable struct {
	fn           reflect.Value
	fnType       reflect.Type
	returnsError bool
}

// inspectFunc checks that fn returns T or (T, error).
func inspectFunc(fn reflect.Value) (*callable, error) {
	fnType := fn.Type()
	switch fnType.NumOut() {
	case 1:
		return &callable{fn: fn, fnType: fnType}, nil
	case 2:
		if !fnType.Out(1).Implements(errorType) {
			return nil, fmt.Errorf("second return value must be error, got %v", fnType.Out(1))
		}
		return &callable{fn: fn, fnType: fnType, returnsError: true}, nil
	default:
		return nil, fmt.Errorf("must return (T) or (T, error), got %d return values", fnType.NumOut())
	}
}

func (f *callable) takesContainer() bool {
	return f.fnType.NumIn() == 1 && !f.fnType.IsVariadic() && f.fnType.In(0) == containerType
}

// arguments maps resolved values onto the function's parameters. Missing
// trailing parameters get their zero value.
func (f *callable) arguments(args []any) ([]reflect.Value, error) {
	numIn := f.fnType.NumIn()
	variadic := f.fnType.IsVariadic()
	if !variadic && len(args) > numIn {
		return nil, fmt.Errorf("takes %d arguments, got %d", numIn, len(args))
	}

	in := make([]reflect.Value, 0, numIn)
	for i := 0; i < numIn; i++ {
		pt := f.fnType.In(i)
		if variadic && i == numIn-1 {
			for j := i; j < len(args); j++ {
				v, err := argument(args[j], pt.Elem(), j)
				if err != nil {
					return nil, err
				}
				in = append(in, v)
			}
			break
		}
		if i >= len(args) {
			in = append(in, reflect.Zero(pt))
			continue
		}
		v, err := argument(args[i], pt, i)
		if err != nil {
			return nil, err
		}
		in = append(in, v)
	}
	return in, nil
}

func (f *callable) call(in []reflect.Value) (any, error) {
	results := f.fn.Call(in)
	if f.returnsError && !results[1].IsNil() {
		return nil, results[1].Interface().(error)
	}
	return results[0].Interface(), nil
}

// argument converts a resolved value to the type of position i.
func argument(v any, t reflect.Type, i int) (reflect.Value, error) {
	if v == nil {
		switch t.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, fmt.Errorf("argument %d: nil is not assignable to %v", i, t)
	}
	rv := reflect.ValueOf(v)
	if !rv.Type().AssignableTo(t) {
		return reflect.Value{}, fmt.Errorf("argument %d: %v is not assignable to %v", i, rv.Type(), t)
	}
	return rv, nil
}
