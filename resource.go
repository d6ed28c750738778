package authority

import (
	"fmt"
	"reflect"
)

// ResourceAll is the sentinel resource type that matches every resource.
// A rule declared for ResourceAll is relevant to checks against any
// resource type.
const ResourceAll = "all"

// Resource identifies the target of a permission check. It is a tagged
// reference holding a resource type name, a concrete resource value, or
// both. Construct it with Type, Value, or Instance; the zero Resource is
// invalid and matches no rule.
type Resource struct {
	name     string
	value    any
	hasName  bool
	hasValue bool
}

// Type references a resource type by name, with no concrete value.
// Rules match on the type name alone and value predicates are skipped.
func Type(name string) Resource {
	return Resource{name: name, hasName: true}
}

// Value references a concrete resource value. The engine resolves its
// resource type name through the configured TypeResolver at check time.
func Value(v any) Resource {
	return Resource{value: v, hasValue: true}
}

// Instance references a concrete value under an explicit resource type
// name, bypassing the TypeResolver. Use it when the value's Go type name
// does not match the type name used in rules.
func Instance(name string, v any) Resource {
	return Resource{name: name, value: v, hasName: true, hasValue: true}
}

// String returns the resource type name when known, otherwise the dynamic
// Go type of the value.
func (r Resource) String() string {
	switch {
	case r.hasName:
		return r.name
	case r.hasValue:
		return fmt.Sprintf("%T", r.value)
	default:
		return "<empty>"
	}
}

// TypeResolver maps a resource value to its resource type name. A resolver
// returns an error when the value carries no usable type identity; the
// engine treats such values as matching no rule.
type TypeResolver func(value any) (string, error)

// ResolveTypeName is the default TypeResolver. It resolves a value to the
// name of its concrete Go type, dereferencing pointers first. Nil values
// and values of unnamed types (plain maps, slices, anonymous structs)
// do not resolve.
func ResolveTypeName(value any) (string, error) {
	if value == nil {
		return "", &UnresolvableResourceError{Value: value, Cause: fmt.Errorf("nil value")}
	}

	t := reflect.TypeOf(value)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if name := t.Name(); name != "" {
		return name, nil
	}
	return "", &UnresolvableResourceError{Value: value, Cause: fmt.Errorf("unnamed type %s", t.Kind())}
}
