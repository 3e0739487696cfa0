package container

import (
	"fmt"
	"reflect"
	"runtime"
)

// ConstructWithDependencies builds target with the arguments recorded for it
// in c's relations (DefaultRelations unless c was created WithRelations).
// Without a recorded relation target is built with no arguments.
//
// Constructor functions are called with the resolved values as positional
// arguments; parameters left over receive their zero value. Struct types get
// the values assigned to their exported fields in declaration order.
func ConstructWithDependencies(target any, c *Container) (any, error) {
	args, _, err := ResolveDependencies(target, c, FromRelations(c.t.relations))
	if err != nil {
		return nil, err
	}
	return construct(target, args)
}

func construct(target any, args []any) (any, error) {
	if t, ok := target.(reflect.Type); ok {
		return constructStruct(t, args)
	}

	fn := reflect.ValueOf(target)
	if fn.Kind() != reflect.Func || fn.IsNil() {
		return nil, &ConstructionError{Target: describe(target), Reason: "not a constructor"}
	}
	info, err := inspectFunc(fn)
	if err != nil {
		return nil, &ConstructionError{Target: describe(target), Reason: err.Error()}
	}
	in, err := info.arguments(args)
	if err != nil {
		return nil, &ConstructionError{Target: describe(target), Reason: err.Error()}
	}
	v, err := info.call(in)
	if err != nil {
		return nil, &ConstructionError{Target: describe(target), Cause: err}
	}
	return v, nil
}

func constructStruct(t reflect.Type, args []any) (any, error) {
	if !isStructType(t) {
		return nil, &ConstructionError{Target: t.String(), Reason: "not a struct type"}
	}
	st := t
	if t.Kind() == reflect.Pointer {
		st = t.Elem()
	}

	fields := structFields.get(st)
	if len(args) > len(fields) {
		return nil, &ConstructionError{
			Target: t.String(),
			Reason: fmt.Sprintf("has %d exported fields, got %d arguments", len(fields), len(args)),
		}
	}

	v := reflect.New(st)
	for i, arg := range args {
		f := fields[i]
		av, err := argument(arg, f.typ, i)
		if err != nil {
			return nil, &ConstructionError{Target: t.String(), Reason: fmt.Sprintf("field %s: %v", f.name, err)}
		}
		v.Elem().Field(f.index).Set(av)
	}

	if t.Kind() == reflect.Pointer {
		return v.Interface(), nil
	}
	return v.Elem().Interface(), nil
}

// describe names a constructor for error messages.
func describe(target any) string {
	fn := reflect.ValueOf(target)
	if fn.Kind() == reflect.Func && !fn.IsNil() {
		if f := runtime.FuncForPC(fn.Pointer()); f != nil {
			return f.Name()
		}
	}
	return fmt.Sprintf("%T", target)
}
