// pkg/aop/dispatcher.go
package aop

import (
	"fmt"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"goaspect/pkg/logger"
)

// Dispatcher is the run-time component that, given an Invocation, locates
// the precomputed advice chain for its method and either runs the chain's
// head or calls Invocation.Proceed directly if no advice is registered. It
// memoizes descriptor -> chain lookups; insertion is at-most-once per
// method descriptor even under concurrent first dispatch.
type Dispatcher struct {
	registry *Registry
	provider InstanceProvider
	log      *zap.SugaredLogger

	cache sync.Map // MethodKey -> *Chain
	group singleflight.Group

	hits   *atomic.Int64
	misses *atomic.Int64
}

// Option configures a Dispatcher at construction time, the translation
// spec.md §9 calls for in place of a global mutable instance provider.
type Option func(*Dispatcher)

// WithInstanceProvider installs the callback used to resolve TypeList
// advice types to instances. Must be set before any method registered
// with that form is first dispatched, or dispatch fails with
// ConfigurationError.
func WithInstanceProvider(p InstanceProvider) Option {
	return func(d *Dispatcher) { d.provider = p }
}

// WithLogger overrides the Dispatcher's logger; defaults to logger.Get().
func WithLogger(l *zap.SugaredLogger) Option {
	return func(d *Dispatcher) { d.log = l }
}

// NewDispatcher constructs a Dispatcher bound to registry.
func NewDispatcher(registry *Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		log:      logger.Get(),
		hits:     atomic.NewInt64(0),
		misses:   atomic.NewInt64(0),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SetInstanceProvider installs or replaces the instance provider after
// construction, e.g. once a DI container has finished wiring itself.
func (d *Dispatcher) SetInstanceProvider(p InstanceProvider) {
	d.provider = p
}

// Dispatch executes the advice chain for inv.Method, or inv.Proceed() if
// no chain is registered for it.
func (d *Dispatcher) Dispatch(inv *Invocation) error {
	chain, err := d.chainFor(inv.Method)
	if err != nil {
		d.log.Errorw("advice chain resolution failed", "method", inv.Method.String(), "error", err)
		return err
	}
	if chain.Len() == 0 {
		_, err := inv.Proceed()
		return err
	}
	return chain.Run(inv)
}

// DispatchWithProxy is the secondary entry point of spec.md §4.2: it first
// writes proxy into target's back-reference slot (§6.1), if the target
// declares one and it is still unset, then dispatches as usual.
func (d *Dispatcher) DispatchWithProxy(inv *Invocation, proxy interface{}) error {
	if proxy != nil {
		writeProxySlot(inv.Target, proxy, d.log)
	}
	return d.Dispatch(inv)
}

// chainFor returns the memoized chain for key, building it at most once
// even when multiple goroutines race to dispatch the same method for the
// first time.
func (d *Dispatcher) chainFor(key MethodKey) (*Chain, error) {
	if v, ok := d.cache.Load(key); ok {
		d.hits.Inc()
		return v.(*Chain), nil
	}

	v, err, _ := d.group.Do(key.String(), func() (interface{}, error) {
		if v, ok := d.cache.Load(key); ok {
			return v, nil
		}
		d.misses.Inc()
		chain, err := d.buildChain(key)
		if err != nil {
			return nil, err
		}
		d.cache.Store(key, chain)
		return chain, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Chain), nil
}

func (d *Dispatcher) buildChain(key MethodKey) (*Chain, error) {
	reg, ok := d.registry.lookup(key)
	if !ok {
		return &Chain{}, nil
	}

	if len(reg.typed) > 0 {
		chain, err := ResolveTypeChain(key, reg.typed, d.provider)
		if err != nil {
			return nil, err
		}
		d.log.Debugw("built advice chain from type-list annotation", "method", key.String(), "advices", chain.Len())
		return chain, nil
	}

	chain, err := NewChain(reg.direct...)
	if err != nil {
		return nil, err
	}
	d.log.Debugw("built advice chain from direct annotations", "method", key.String(), "advices", chain.Len())
	return chain, nil
}

// CacheStats reports cumulative hit/miss counts on the chain cache, useful
// for tests asserting the at-most-once insertion invariant and for
// operational visibility. hits counts lookups served straight from the
// cache; misses counts chain builds, so callers that raced a concurrent
// build and shared its result are counted in neither.
func (d *Dispatcher) CacheStats() (hits, misses int64) {
	return d.hits.Load(), d.misses.Load()
}

func (d *Dispatcher) String() string {
	return fmt.Sprintf("Dispatcher(registry=%p)", d.registry)
}
