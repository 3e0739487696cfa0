package container

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels for errors.Is. Every typed error below matches exactly one.
var (
	ErrMissingRegistration  = errors.New("container: no registration")
	ErrUnresolvedDependency = errors.New("container: unresolved dependency")
	ErrCircularDependency   = errors.New("container: circular dependency")
	ErrUnidentifiableTarget = errors.New("container: target has no stable identity")
)

// MissingRegistrationError is returned by Get when the key is absent from the
// container and all of its ancestors.
type MissingRegistrationError struct {
	Key string
}

func (e *MissingRegistrationError) Error() string {
	return fmt.Sprintf("container: no registration for key %q", e.Key)
}

func (e *MissingRegistrationError) Is(target error) bool { return target == ErrMissingRegistration }

// UnresolvedDependencyError is returned by ResolveDependencies when a declared
// key is unknown to the container chain and safe resolution was not requested.
type UnresolvedDependencyError struct {
	Key string
}

func (e *UnresolvedDependencyError) Error() string {
	return fmt.Sprintf("container: unresolved dependency: %s", e.Key)
}

func (e *UnresolvedDependencyError) Is(target error) bool { return target == ErrUnresolvedDependency }

// CircularDependencyError reports a key that re-entered resolution. Path holds
// the in-flight keys in request order followed by the repeated key.
type CircularDependencyError struct {
	Path []string
}

func (e *CircularDependencyError) Error() string {
	if len(e.Path) == 0 {
		return "container: circular dependency detected"
	}
	return fmt.Sprintf("container: circular dependency detected: %s", strings.Join(e.Path, " -> "))
}

func (e *CircularDependencyError) Is(target error) bool { return target == ErrCircularDependency }

// ConstructionError is returned when a constructible target cannot be built
// from its resolved arguments, or when its constructor returned an error.
type ConstructionError struct {
	Target string
	Reason string
	Cause  error
}

func (e *ConstructionError) Error() string {
	msg := fmt.Sprintf("container: construct %s", e.Target)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ConstructionError) Unwrap() error { return e.Cause }

// FactoryError wraps an error returned by a plain factory.
type FactoryError struct {
	Key   string
	Cause error
}

func (e *FactoryError) Error() string {
	return fmt.Sprintf("container: factory for %q failed: %v", e.Key, e.Cause)
}

func (e *FactoryError) Unwrap() error { return e.Cause }

// passthrough reports whether err already carries container context and
// should propagate from a nested resolution unchanged.
func passthrough(err error) bool {
	var (
		missing    *MissingRegistrationError
		unresolved *UnresolvedDependencyError
		circular   *CircularDependencyError
		construct  *ConstructionError
		factory    *FactoryError
	)
	return errors.As(err, &missing) ||
		errors.As(err, &unresolved) ||
		errors.As(err, &circular) ||
		errors.As(err, &construct) ||
		errors.As(err, &factory)
}
