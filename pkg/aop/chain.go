// pkg/aop/chain.go
package aop

import (
	"sort"
)

// Chain is a flattened, order-stable sequence of advices assembled from
// direct sources (the SingleAdvice/AdviceBundle annotation forms). The
// zero Chain (no advices) is valid and behaves as "no advice exists": Run
// degenerates to a direct call to Invocation.Proceed.
type Chain struct {
	advices []Advice
}

// Len reports how many advices the chain holds after flattening.
func (c *Chain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.advices)
}

// Advices returns the flattened, ordered advice list. Callers must not
// mutate the returned slice.
func (c *Chain) Advices() []Advice {
	if c == nil {
		return nil
	}
	return c.advices
}

// NewChain flattens sources (each an Advice or *Bundle) into an ordered
// Chain: sources are stable-sorted by Order, then walked depth-first,
// inlining each Bundle's children at the bundle's position.
func NewChain(sources ...interface{}) (*Chain, error) {
	advices, err := flattenSources(sources)
	if err != nil {
		return nil, err
	}
	return &Chain{advices: advices}, nil
}

func flattenSources(sources []interface{}) ([]Advice, error) {
	type entry struct {
		order int
		idx   int
		src   interface{}
	}
	entries := make([]entry, len(sources))
	for i, s := range sources {
		o, err := sourceOrder(s)
		if err != nil {
			return nil, err
		}
		entries[i] = entry{order: o, idx: i, src: s}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].order < entries[j].order
	})

	var out []Advice
	for _, e := range entries {
		switch v := e.src.(type) {
		case *Bundle:
			children, err := flattenSources(v.Sources)
			if err != nil {
				return nil, err
			}
			out = append(out, children...)
		case Advice:
			out = append(out, v)
		default:
			return nil, newConfigErr(MethodKey{}, "advice source must be an Advice or *Bundle, got %T", v)
		}
	}
	return out, nil
}

func sourceOrder(s interface{}) (int, error) {
	switch v := s.(type) {
	case *Bundle:
		return v.OrderVal, nil
	case Advice:
		return v.Order(), nil
	default:
		return 0, newConfigErr(MethodKey{}, "advice source must be an Advice or *Bundle, got %T", v)
	}
}

// Run executes the chain against inv: the head advice's Apply is called
// with a continuation that threads through the rest of the chain and,
// after the last advice, into Invocation.Proceed. If the chain is empty,
// Run is observationally indistinguishable from calling inv.Proceed()
// directly.
func (c *Chain) Run(inv *Invocation) error {
	return runFrom(c.Advices(), 0, inv)
}

func runFrom(advices []Advice, i int, inv *Invocation) error {
	if i >= len(advices) {
		_, err := inv.Proceed()
		return err
	}

	current := advices[i]
	guardedNext := func() error {
		err := runFrom(advices, i+1, inv)
		if err != nil {
			inv.Err = err
			if current.SwallowExceptions() {
				return nil
			}
			return err
		}
		return nil
	}

	return current.Apply(inv, guardedNext)
}

// ResolveTypeChain builds a Chain from a type-list registration: each
// reflect.Type (after flattening any TypeBundles) is resolved to an
// instance through provider, which must already be installed — a nil
// provider is a ConfigurationError, as is a resolved value that does not
// implement Advice.
func ResolveTypeChain(key MethodKey, entries []interface{}, provider InstanceProvider) (*Chain, error) {
	types, err := flattenTypes(entries)
	if err != nil {
		return nil, err
	}
	if len(types) == 0 {
		return nil, newConfigErr(key, "type-list registration has no advice types")
	}
	if provider == nil {
		return nil, newConfigErr(key, "TypeList annotation used but no instance provider has been installed")
	}

	sources := make([]interface{}, 0, len(types))
	for _, t := range types {
		instance, err := provider(t)
		if err != nil {
			return nil, newConfigErr(key, "instance provider failed for type %s: %v", t, err)
		}
		advice, ok := instance.(Advice)
		if !ok {
			return nil, newConfigErr(key, "type %s resolved by instance provider does not implement Advice", t)
		}
		sources = append(sources, advice)
	}
	return NewChain(sources...)
}
