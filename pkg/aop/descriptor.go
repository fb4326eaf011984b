// pkg/aop/descriptor.go
package aop

import "reflect"

// MethodKey identifies a method the way the advice registry keys on it: by
// the logical (most-derived, user-declared) type and method name, never by
// the wrapping proxy. Two wrappers for the same target type share the same
// MethodKey and therefore the same advice chain.
type MethodKey struct {
	Type reflect.Type
	Name string
}

// String renders the key for logs and error messages.
func (k MethodKey) String() string {
	if k.Type == nil {
		return "<nil>." + k.Name
	}
	return k.Type.String() + "." + k.Name
}

// MethodDescriptor carries shape information about a pointcut beyond its
// name: whether the method is asynchronous (returns a *Future rather than a
// plain value) and its signature. The dispatcher, proxy generator and async
// adapter key on MethodKey alone and do not read these fields.
type MethodDescriptor struct {
	Key       MethodKey
	NumIn     int
	NumOut    int
	Async     bool // true when the method's declared result is a *Future
	ResultTyp reflect.Type
}

// IsPointcut reports whether d names a method with at least one registered
// advice source. Call sites typically ask the Registry instead of building
// this from scratch.
func (d MethodDescriptor) IsPointcut(r *Registry) bool {
	return r.Has(d.Key)
}
