// pkg/aop/provider.go
package aop

import "reflect"

// InstanceProvider resolves an advice type descriptor to an advice
// instance. It is the Go stand-in for spec.md §6.2's "nullary global of
// type (type_descriptor) -> object": the embedding container (a DI
// container, typically) installs one on the Dispatcher before any method
// registered with the TypeList form is first dispatched.
type InstanceProvider func(t reflect.Type) (interface{}, error)

// TypeBundle is the Go form of spec.md's TypeBundle annotation: an opaque
// grouping that resolves, through the instance provider, into a list of
// advice types. Used inside a TypeList registration.
type TypeBundle struct {
	Types []reflect.Type
}

// NewTypeBundle constructs a TypeBundle from the given advice types (each
// of which must implement Advice once resolved through the provider).
func NewTypeBundle(types ...reflect.Type) *TypeBundle {
	return &TypeBundle{Types: types}
}

// flattenTypes walks a mixed list of reflect.Type and *TypeBundle entries
// depth-first into a single ordered list of reflect.Type, the type-list
// analogue of flattenSources.
func flattenTypes(entries []interface{}) ([]reflect.Type, error) {
	var out []reflect.Type
	for _, e := range entries {
		switch v := e.(type) {
		case reflect.Type:
			out = append(out, v)
		case *TypeBundle:
			out = append(out, v.Types...)
		default:
			return nil, newConfigErr(MethodKey{}, "type-list source must be a reflect.Type or *TypeBundle, got %T", e)
		}
	}
	return out, nil
}
