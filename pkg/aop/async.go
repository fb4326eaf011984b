// pkg/aop/async.go
package aop

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Future is the Go stand-in for spec.md §4.4's asynchronous task: a
// single-assignment result populated exactly once, regardless of how many
// goroutines are awaiting it or how many times the producing call is
// observed. This mirrors the scenario in spec.md §8 where two async
// advices each await "the same underlying task" rather than triggering two
// independent executions of the body.
type Future struct {
	done   chan struct{}
	once   sync.Once
	result interface{}
	err    error
}

// NewFuture returns an incomplete Future.
func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Completed returns an already-resolved Future, useful for advices that
// short-circuit an async call with a cached value.
func Completed(result interface{}, err error) *Future {
	f := NewFuture()
	f.complete(result, err)
	return f
}

func (f *Future) complete(result interface{}, err error) {
	f.once.Do(func() {
		f.result = result
		f.err = err
		close(f.done)
	})
}

// Await blocks until the Future resolves or ctx is done, whichever comes
// first.
func (f *Future) Await(ctx context.Context) (interface{}, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// IsDone reports whether the Future has resolved without blocking.
func (f *Future) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// RunAsync starts fn on its own goroutine, supervised by an errgroup so a
// panic-free failure path is reported the same way a multi-leg async
// advice's own errgroup would, and returns a Future that resolves with
// fn's result.
func RunAsync(ctx context.Context, fn func(ctx context.Context) (interface{}, error)) *Future {
	f := NewFuture()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		result, err := fn(gctx)
		f.complete(result, err)
		return err
	})
	return f
}

// AwaitAs awaits f and type-asserts its result to R, the Go form of
// spec.md §4.4's typed task<R> dispatch: "the adapter dispatches on R and
// returns a task whose final value is IR.return_value cast to R."
func AwaitAs[R any](ctx context.Context, f *Future) (R, error) {
	var zero R
	v, err := f.Await(ctx)
	if err != nil {
		return zero, err
	}
	r, ok := v.(R)
	if !ok {
		return zero, newUnsupportedErr("future resolved to %T, not the expected result type", v)
	}
	return r, nil
}

// ProceedAsync continues the chain via next (exactly like the synchronous
// proceed(IR) helper in spec.md §4.1) and asserts that the resulting
// Invocation return value is a *Future — the Go form of "method's declared
// return type is an asynchronous task." It fails with
// UnsupportedOperationError when applied to a method whose result is not a
// *Future, matching spec.md §4.4's adapter contract.
func ProceedAsync(inv *Invocation, next func() error) (*Future, error) {
	if err := next(); err != nil {
		return nil, err
	}
	fut, ok := inv.Return().(*Future)
	if !ok {
		return nil, newUnsupportedErr("async advice applied to a method whose return value is not a *Future")
	}
	return fut, nil
}

// AsyncAdvice adapts a Future-aware handler into an Advice. Handler
// receives a proceed function that runs the rest of the chain and returns
// the downstream Future; it should call inv.InitializeAwait() before its
// first blocking wait on that Future, matching the single-shot suspension
// hook contract.
type AsyncAdvice struct {
	BaseAdvice
	Handler func(inv *Invocation, proceed func() (*Future, error)) error
}

func (a *AsyncAdvice) Apply(inv *Invocation, next func() error) error {
	return a.Handler(inv, func() (*Future, error) { return ProceedAsync(inv, next) })
}
