// pkg/aop/invocation.go
package aop

import "sync"

// Executor invokes the original method body directly against the wrapped
// target, bypassing any further interception. It is the Go stand-in for the
// non-virtual "executor" synthesized alongside the proxy: since the proxy is
// a wrapping decorator rather than a synthesized subtype, calling the
// embedded original's method already sidesteps the wrapper, so Executor is
// simply that method value, boxed.
type Executor func(args []interface{}) ([]interface{}, error)

// Invocation is the mutable per-call state threaded through an advice
// chain: the passive value bundling the target, the method being
// intercepted, its arguments, a mutable return slot, a mutable error slot,
// a user data map, and the proceed thunk.
//
// An Invocation is single-threaded per invocation: only one logical
// activation may be advancing it at a time, though that activation may
// migrate goroutines across an async suspension point.
type Invocation struct {
	Target interface{}
	Method MethodKey

	Args         []interface{}
	ReturnValues []interface{}
	Err          error

	// Data lets advices communicate cross-cutting state (timing,
	// correlation IDs) without a shared side channel.
	Data map[string]interface{}

	executor Executor

	proceedCount int
	beforeAwait  sync.Once
	awaitHooks   []func()
}

// NewInvocation constructs an Invocation for a single call. executor is the
// thunk that, when run, invokes the original method body.
func NewInvocation(target interface{}, method MethodKey, args []interface{}, executor Executor) *Invocation {
	return &Invocation{
		Target:   target,
		Method:   method,
		Args:     args,
		Data:     make(map[string]interface{}),
		executor: executor,
	}
}

// Proceed invokes the executor against Target with Args, assigns the result
// to ReturnValues, and returns it. It may be called zero, one, or more than
// once from within an advice; repeated calls re-invoke the executor and
// overwrite ReturnValues with the latest result — the "double proceed"
// semantics spec.md leaves as an explicit open question are honored here:
// each call re-runs the underlying method, it does not replay the chain.
func (inv *Invocation) Proceed() ([]interface{}, error) {
	inv.proceedCount++
	vals, err := inv.executor(inv.Args)
	inv.ReturnValues = vals
	inv.Err = err
	return vals, err
}

// ProceedCount returns how many times Proceed has run the executor so far.
// Tests use this to assert the "exactly n invocations" invariant.
func (inv *Invocation) ProceedCount() int {
	return inv.proceedCount
}

// Return is a convenience accessor for the common case of a single logical
// result (the rest of ReturnValues, if any, is typically a trailing error
// already surfaced through Err).
func (inv *Invocation) Return() interface{} {
	if len(inv.ReturnValues) == 0 {
		return nil
	}
	return inv.ReturnValues[0]
}

// SetReturn short-circuits the chain: an advice may assign a return value
// directly and return without calling Proceed.
func (inv *Invocation) SetReturn(v interface{}) {
	inv.ReturnValues = []interface{}{v}
}

// InitializeAwait is the one-shot hook an async advice calls the first time
// it is about to suspend for an asynchronous continuation, so listeners can
// capture or propagate ambient context. It fires at most once per
// Invocation; later calls are no-ops.
func (inv *Invocation) InitializeAwait() {
	inv.beforeAwait.Do(func() {
		for _, hook := range inv.awaitHooks {
			hook()
		}
	})
}

// OnBeforeAwait registers a listener invoked the first time InitializeAwait
// fires. Registering after InitializeAwait has already fired is a no-op,
// matching the single-shot-per-Invocation contract.
func (inv *Invocation) OnBeforeAwait(hook func()) {
	inv.awaitHooks = append(inv.awaitHooks, hook)
}
