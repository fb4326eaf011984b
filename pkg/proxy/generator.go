// pkg/proxy/generator.go
package proxy

import (
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"goaspect/pkg/aop"
	"goaspect/pkg/logger"
)

// WrapperFactory is the hand-authored trampoline stub spec.md §9 calls for
// in place of runtime bytecode emission: a small function, written once
// per aspect target, that returns a value implementing the target's
// interface whose pointcut methods build an aop.Invocation and forward to
// dispatcher, and whose non-pointcut methods forward directly to original.
// This is the "manually-written per-method stub" translation of the
// synthesized subtype T'.
type WrapperFactory func(original interface{}, dispatcher *aop.Dispatcher) interface{}

// ProxyType records what was synthesized for a single user type: the
// original type, a uniquified diagnostic name, and the set of method
// names that are pointcuts on it.
type ProxyType struct {
	Target    reflect.Type
	Name      string
	Pointcuts []string

	factory WrapperFactory
}

// Generator is the Proxy Type Registry of spec.md §3: a build-once,
// read-many mapping from class descriptor to synthesized subtype
// information. Entries are added once; reads are unlocked after
// publication.
type Generator struct {
	log       *zap.SugaredLogger
	types     sync.Map // reflect.Type -> *ProxyType
	group     singleflight.Group
	usedNames sync.Map // string -> struct{}, simple names already published
}

// NewGenerator constructs an empty Generator.
func NewGenerator() *Generator {
	return &Generator{log: logger.Get()}
}

// Describe registers the proxy for targetType: interfaceType is the
// interface the wrapper must implement, pointcuts names the methods that
// are intercepted, and factory is the hand-written wrapper constructor.
//
// Every name in pointcuts must be declared on interfaceType, or Describe
// fails with *aop.ConfigurationError ("method not overridable") before
// publishing anything — spec.md §4.3's hard constraint that a non-
// overridable pointcut must fail at generation time without a partial
// proxy type reaching the registry.
//
// Concurrent callers racing to Describe the same targetType for the first
// time observe at-most-once synthesis: only the first call's factory is
// published; later calls return the already-published ProxyType.
func (g *Generator) Describe(targetType, interfaceType reflect.Type, pointcuts []string, factory WrapperFactory) (*ProxyType, error) {
	if interfaceType.Kind() != reflect.Interface {
		return nil, &aop.ConfigurationError{Reason: fmt.Sprintf("%s is not an interface type", interfaceType)}
	}
	for _, name := range pointcuts {
		if _, ok := interfaceType.MethodByName(name); !ok {
			return nil, &aop.ConfigurationError{Reason: fmt.Sprintf(
				"method %s not overridable: not declared on interface %s", name, interfaceType)}
		}
	}

	result, err, _ := g.group.Do(targetType.String(), func() (interface{}, error) {
		if v, ok := g.types.Load(targetType); ok {
			return v, nil
		}
		pt := &ProxyType{
			Target:    targetType,
			Name:      g.disambiguate(shortName(targetType)),
			Pointcuts: append([]string(nil), pointcuts...),
			factory:   factory,
		}
		g.types.Store(targetType, pt)
		g.log.Infow("synthesized proxy type",
			"target", targetType.String(),
			"name", pt.Name,
			"pointcuts", pt.Pointcuts)
		return pt, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*ProxyType), nil
}

// disambiguate returns base unchanged the first time it is seen, and a
// Uniquify-suffixed form on every subsequent call with the same base —
// spec.md §3's "name collisions across classes with the same simple name
// are disambiguated with a monotonically incremented suffix", applied only
// when a collision actually occurs rather than on every registration.
func (g *Generator) disambiguate(base string) string {
	if _, collided := g.usedNames.LoadOrStore(base, struct{}{}); !collided {
		return base
	}
	name := aop.Uniquify(base)
	g.usedNames.Store(name, struct{}{})
	return name
}

func shortName(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

// IsAspectTarget reports whether targetType has a registered proxy type —
// the predicate spec.md §6.3 calls for container integration.
func (g *Generator) IsAspectTarget(targetType reflect.Type) bool {
	_, ok := g.types.Load(targetType)
	return ok
}

// Lookup returns the ProxyType registered for targetType, if any.
func (g *Generator) Lookup(targetType reflect.Type) (*ProxyType, bool) {
	v, ok := g.types.Load(targetType)
	if !ok {
		return nil, false
	}
	return v.(*ProxyType), true
}

// Wrap produces a new instance of original's synthesized proxy type,
// redirecting its pointcut methods through dispatcher. It fails if
// original's type was never described.
func (g *Generator) Wrap(original interface{}, dispatcher *aop.Dispatcher) (interface{}, error) {
	t := reflect.TypeOf(original)
	pt, ok := g.Lookup(t)
	if !ok {
		return nil, &aop.ConfigurationError{Reason: fmt.Sprintf("type %s has no registered proxy; call Describe first", t)}
	}
	return pt.factory(original, dispatcher), nil
}
