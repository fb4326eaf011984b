// pkg/aop/advice.go
package aop

// Advice is a unit of cross-cutting behavior that runs around an
// intercepted method call. Order is ascending precedence (ties broken by
// source-declaration order); SwallowExceptions governs what happens when
// this advice's own call to the chain continuation fails; Apply runs the
// advice body, calling next to continue into the rest of the chain (or,
// for the last advice, into the original method).
//
// Advice instances are frequently singletons resolved from a DI container
// and therefore must be safe for concurrent use: the chain links between
// advices are fixed at build time and never mutated, so traversal itself is
// lock-free, but the advice body's own state is the implementer's concern.
type Advice interface {
	Order() int
	SwallowExceptions() bool

	// Apply runs this advice's body. Calling next() continues the chain:
	// for the last advice, next() invokes the original method via
	// Invocation.Proceed(); otherwise it runs the next advice's Apply.
	// next() may be called zero, one, or more than once; each call
	// re-enters whatever is downstream of this advice, not the prefix.
	Apply(inv *Invocation, next func() error) error
}

// AdviceFunc adapts a plain function to the Advice interface for advices
// with no state beyond order/swallow, analogous to http.HandlerFunc.
type AdviceFunc struct {
	OrderVal   int
	Swallow    bool
	ApplyFunc  func(inv *Invocation, next func() error) error
}

func (f AdviceFunc) Order() int             { return f.OrderVal }
func (f AdviceFunc) SwallowExceptions() bool { return f.Swallow }
func (f AdviceFunc) Apply(inv *Invocation, next func() error) error {
	return f.ApplyFunc(inv, next)
}

// BaseAdvice is embeddable in struct-based advices that just need the
// bookkeeping fields; embedders override Apply.
type BaseAdvice struct {
	OrderVal int
	Swallow  bool
}

func (b BaseAdvice) Order() int             { return b.OrderVal }
func (b BaseAdvice) SwallowExceptions() bool { return b.Swallow }

// Bundle is the Go form of spec.md's AdviceBundle annotation: a composite
// advice source whose children are inlined at the bundle's position when
// the chain is flattened. Bundle implements Advice so it can be sorted
// alongside direct advices at the top level, but calling Apply on it
// directly is unsupported — chain construction always flattens it away
// before Apply is ever invoked on a live chain.
type Bundle struct {
	OrderVal int
	Sources  []interface{} // each element is an Advice or *Bundle
}

// NewBundle constructs a Bundle with the given top-level order and child
// sources (each either an Advice or another *Bundle).
func NewBundle(order int, sources ...interface{}) *Bundle {
	return &Bundle{OrderVal: order, Sources: sources}
}

func (b *Bundle) Order() int             { return b.OrderVal }
func (b *Bundle) SwallowExceptions() bool { return false }
func (b *Bundle) Apply(inv *Invocation, next func() error) error {
	return newUnsupportedErr("Apply called directly on a Bundle; bundles are flattened at chain-build time, never applied")
}
