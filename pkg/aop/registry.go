// pkg/aop/registry.go
package aop

import "sync"

// registration holds whichever annotation form a method was registered
// with. Exactly one of direct/typed is set.
type registration struct {
	direct []interface{} // Advice / *Bundle sources (SingleAdvice/AdviceBundle form)
	typed  []interface{} // reflect.Type / *TypeBundle sources (TypeList form)
}

// Registry is the declarative registration table that stands in for
// spec.md's attribute-based annotations (§9 DESIGN NOTES): the "given a
// method descriptor, produce the (possibly empty) ordered list of advice
// sources" contract, built at start-up instead of read off reflected
// attributes. A method is a pointcut iff it has an entry here.
type Registry struct {
	mu      sync.RWMutex
	entries map[MethodKey]*registration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[MethodKey]*registration)}
}

// Register attaches the SingleAdvice/AdviceBundle form to key: sources is a
// list of Advice and/or *Bundle values. Calling Register again for a key
// already registered with the TypeList form fails with ConfigurationError
// (the two forms are mutually exclusive); calling it again with more direct
// sources appends them, matching "SingleAdvice ... allowed multiple times
// on the same method."
func (r *Registry) Register(key MethodKey, sources ...interface{}) error {
	if len(sources) == 0 {
		return newConfigErr(key, "advice source list is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.entries[key]
	if !ok {
		reg = &registration{}
		r.entries[key] = reg
	}
	if reg.typed != nil {
		return newConfigErr(key, "method already carries a TypeList annotation; SingleAdvice/AdviceBundle and TypeList are mutually exclusive")
	}
	reg.direct = append(reg.direct, sources...)
	return nil
}

// RegisterTypes attaches the TypeList form to key: entries is a list of
// reflect.Type and/or *TypeBundle values, resolved to instances through the
// Dispatcher's InstanceProvider on first dispatch. Calling RegisterTypes
// for a key already registered with the direct form fails with
// ConfigurationError.
func (r *Registry) RegisterTypes(key MethodKey, entries ...interface{}) error {
	if len(entries) == 0 {
		return newConfigErr(key, "type list is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.entries[key]
	if !ok {
		reg = &registration{}
		r.entries[key] = reg
	}
	if reg.direct != nil {
		return newConfigErr(key, "method already carries a SingleAdvice/AdviceBundle annotation; SingleAdvice/AdviceBundle and TypeList are mutually exclusive")
	}
	reg.typed = append(reg.typed, entries...)
	return nil
}

// Has reports whether key is a pointcut (carries at least one advice
// annotation, direct or type-list form).
func (r *Registry) Has(key MethodKey) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.entries[key]
	return ok && (len(reg.direct) > 0 || len(reg.typed) > 0)
}

// lookup returns a copy of key's registration, or ok=false if key is not a
// pointcut.
func (r *Registry) lookup(key MethodKey) (registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.entries[key]
	if !ok {
		return registration{}, false
	}
	return registration{direct: reg.direct, typed: reg.typed}, true
}

// defaultRegistry is the package-level registry used when callers don't
// construct their own, mirroring spec.md's implicit global annotation
// table.
var defaultRegistry = NewRegistry()

// DefaultRegistry returns the shared package-level registry.
func DefaultRegistry() *Registry { return defaultRegistry }
