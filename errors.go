package authority

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrAliasNotFound is returned when an alias is looked up by a name
	// that was never registered.
	ErrAliasNotFound = errors.New("alias not found")

	// ErrUnresolvableResource is returned when a resource value cannot be
	// mapped to a resource type name.
	ErrUnresolvableResource = errors.New("unresolvable resource")
)

// UnresolvableResourceError reports a resource value whose type name could
// not be determined. During permission checks this error is never surfaced:
// an unresolvable resource simply matches no rule and falls back to the
// default deny. It is returned by resolver-facing APIs such as
// ResolveTypeName.
type UnresolvableResourceError struct {
	// Value is the resource value that failed to resolve.
	Value any
	// Cause is the underlying error, if any.
	Cause error
}

// Error returns a human-readable description of the resolution failure.
func (e *UnresolvableResourceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("unresolvable resource %T: %v", e.Value, e.Cause)
	}
	return fmt.Sprintf("unresolvable resource %T", e.Value)
}

// Unwrap returns the underlying error cause.
func (e *UnresolvableResourceError) Unwrap() error {
	return e.Cause
}

// Is reports whether this error matches the target error.
// It supports errors.Is(err, ErrUnresolvableResource).
func (e *UnresolvableResourceError) Is(target error) bool {
	return target == ErrUnresolvableResource
}
