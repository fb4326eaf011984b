package services

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"go.uber.org/zap"

	"goaspect/internal/models"
	"goaspect/pkg/aop"
	"goaspect/pkg/logger"
	"goaspect/pkg/proxy"
)

// Calculator is the interface the worked spec.md §8 scenarios run
// against. Every method below is a pointcut; CalculatorProxy is its
// hand-written trampoline (spec.md §9's translation of the synthesized
// subtype), and RegisterCalculatorAspect wires both the proxy type and
// the per-method advice chains into a Generator/Registry pair.
type Calculator interface {
	// OneAdvice divides its stored value by y, clamping the result to
	// never drop below 1.0 (scenario 1).
	OneAdvice(y float64) (*models.Contract, error)
	// Chained multiplies its stored value by y into a brand new Contract
	// (scenario 2: chained advices with a caching short-circuit).
	Chained(y float64) (*models.Contract, error)
	// Bundled returns a snapshot of the stored value; its interest is
	// entirely in the bundle of Logging advices attached to it
	// (scenario 3).
	Bundled() (*models.Contract, error)
	// TypeListMethod returns a snapshot of the stored value; its advice
	// chain is resolved through an instance provider at first dispatch
	// (scenario 4).
	TypeListMethod() (*models.Contract, error)
	// GetValueAsync returns a Future resolving to a fixed value after a
	// short simulated delay (scenario 5).
	GetValueAsync(ctx context.Context) *aop.Future
}

// calculatorImpl is the plain, un-intercepted implementation: ordinary Go
// code with no awareness of advices, dispatchers, or proxies.
type calculatorImpl struct {
	contract *models.Contract
	log      *zap.SugaredLogger

	// Proxy is the back-reference slot of spec.md §6.1: on the first
	// dispatch through the wrapper, the dispatcher publishes the wrapper
	// here so the instance can call back into its own intercepted
	// methods instead of bypassing interception via a direct reference
	// to itself. It is exported because the dispatcher sets it through
	// reflection, which cannot set unexported fields.
	Proxy Calculator `aop:"proxy"`

	bodyCalls int // test-observable: how many times GetValueAsync's body actually ran
}

// NewCalculator constructs the plain implementation with an initial value.
func NewCalculator(initial float64) *calculatorImpl {
	return &calculatorImpl{contract: &models.Contract{X: initial}, log: logger.Get()}
}

func (c *calculatorImpl) OneAdvice(y float64) (*models.Contract, error) {
	c.contract.X /= y
	if c.contract.X < 1.0 {
		c.contract.X = 1.0
	}
	return c.contract, nil
}

func (c *calculatorImpl) Chained(y float64) (*models.Contract, error) {
	if y <= 1 {
		return nil, fmt.Errorf("chained: y must be greater than 1, got %v", y)
	}
	return &models.Contract{X: c.contract.X * y}, nil
}

func (c *calculatorImpl) Bundled() (*models.Contract, error) {
	return c.contract.Clone(), nil
}

func (c *calculatorImpl) TypeListMethod() (*models.Contract, error) {
	return c.contract.Clone(), nil
}

func (c *calculatorImpl) GetValueAsync(ctx context.Context) *aop.Future {
	c.bodyCalls++
	return aop.RunAsync(ctx, func(ctx context.Context) (interface{}, error) {
		time.Sleep(10 * time.Millisecond)
		return 0.5, nil
	})
}

// calculatorType keys every MethodKey and Describe call for this aspect
// target; it must be the concrete, user-declared type, not the proxy.
var calculatorType = reflect.TypeOf((*calculatorImpl)(nil))

var calculatorInterfaceType = reflect.TypeOf((*Calculator)(nil)).Elem()

func calculatorKey(method string) aop.MethodKey {
	return aop.MethodKey{Type: calculatorType, Name: method}
}

// CalculatorProxy is the hand-written trampoline stub: the Go translation
// of the synthesized subtype T'. Each method builds an Invocation whose
// executor calls straight through to the embedded original (the
// "executor", here just a direct method call since composition, not
// inheritance, means there is nothing to virtually re-dispatch into) and
// forwards to the Dispatcher.
type CalculatorProxy struct {
	original   *calculatorImpl
	dispatcher *aop.Dispatcher
}

// NewCalculatorProxy wraps original so that its pointcut methods redirect
// through dispatcher.
func NewCalculatorProxy(original *calculatorImpl, dispatcher *aop.Dispatcher) *CalculatorProxy {
	return &CalculatorProxy{original: original, dispatcher: dispatcher}
}

func (p *CalculatorProxy) OneAdvice(y float64) (*models.Contract, error) {
	inv := aop.NewInvocation(p.original, calculatorKey("OneAdvice"), []interface{}{y},
		func(args []interface{}) ([]interface{}, error) {
			c, err := p.original.OneAdvice(args[0].(float64))
			return []interface{}{c}, err
		})
	if err := p.dispatcher.DispatchWithProxy(inv, p); err != nil {
		return nil, err
	}
	result, _ := inv.Return().(*models.Contract)
	return result, inv.Err
}

func (p *CalculatorProxy) Chained(y float64) (*models.Contract, error) {
	inv := aop.NewInvocation(p.original, calculatorKey("Chained"), []interface{}{y},
		func(args []interface{}) ([]interface{}, error) {
			c, err := p.original.Chained(args[0].(float64))
			return []interface{}{c}, err
		})
	if err := p.dispatcher.DispatchWithProxy(inv, p); err != nil {
		return nil, err
	}
	result, _ := inv.Return().(*models.Contract)
	return result, inv.Err
}

func (p *CalculatorProxy) Bundled() (*models.Contract, error) {
	inv := aop.NewInvocation(p.original, calculatorKey("Bundled"), nil,
		func(args []interface{}) ([]interface{}, error) {
			c, err := p.original.Bundled()
			return []interface{}{c}, err
		})
	if err := p.dispatcher.DispatchWithProxy(inv, p); err != nil {
		return nil, err
	}
	result, _ := inv.Return().(*models.Contract)
	return result, inv.Err
}

func (p *CalculatorProxy) TypeListMethod() (*models.Contract, error) {
	inv := aop.NewInvocation(p.original, calculatorKey("TypeListMethod"), nil,
		func(args []interface{}) ([]interface{}, error) {
			c, err := p.original.TypeListMethod()
			return []interface{}{c}, err
		})
	if err := p.dispatcher.DispatchWithProxy(inv, p); err != nil {
		return nil, err
	}
	result, _ := inv.Return().(*models.Contract)
	return result, inv.Err
}

func (p *CalculatorProxy) GetValueAsync(ctx context.Context) *aop.Future {
	inv := aop.NewInvocation(p.original, calculatorKey("GetValueAsync"), []interface{}{ctx},
		func(args []interface{}) ([]interface{}, error) {
			fut := p.original.GetValueAsync(args[0].(context.Context))
			return []interface{}{fut}, nil
		})
	if err := p.dispatcher.DispatchWithProxy(inv, p); err != nil {
		return aop.Completed(nil, err)
	}
	fut, _ := inv.Return().(*aop.Future)
	if fut == nil {
		return aop.Completed(nil, inv.Err)
	}
	return fut
}

// calculatorWrapperFactory adapts CalculatorProxy's constructor to the
// proxy.WrapperFactory signature expected by Generator.Describe.
func calculatorWrapperFactory(original interface{}, dispatcher *aop.Dispatcher) interface{} {
	return NewCalculatorProxy(original.(*calculatorImpl), dispatcher)
}

// RegisterCalculatorAspect registers the Calculator proxy type and every
// pointcut's advice chain, reproducing the five pointcut scenarios of
// spec.md §8 (the sixth, a non-overridable pointcut, is a failing
// Describe call rather than a registration):
//   - OneAdvice: a single Logging advice.
//   - Chained: Caching (implicit order 0) ahead of Logging(order=1) and
//     Validation(order=2) — a cache hit short-circuits both.
//   - Bundled: a bundle of two Logging advices (distinguished by Context).
//   - TypeListMethod: a TypeList resolved through an instance provider.
//   - GetValueAsync: Async1 (implicit order 0) ahead of Async2(order=1).
func RegisterCalculatorAspect(gen *proxy.Generator, registry *aop.Registry, recorder *[]string) error {
	pointcuts := []string{"OneAdvice", "Chained", "Bundled", "TypeListMethod", "GetValueAsync"}
	if _, err := gen.Describe(calculatorType, calculatorInterfaceType, pointcuts, calculatorWrapperFactory); err != nil {
		return err
	}

	log := logger.Get()

	if err := registry.Register(calculatorKey("OneAdvice"),
		&LoggingAdvice{Log: log, Recorder: recorder}); err != nil {
		return err
	}

	if err := registry.Register(calculatorKey("Chained"),
		NewCachingAdvice(),
		&LoggingAdvice{BaseAdvice: aop.BaseAdvice{OrderVal: 1}, Log: log, Recorder: recorder},
		&ValidationAdvice{BaseAdvice: aop.BaseAdvice{OrderVal: 2}}); err != nil {
		return err
	}

	if err := registry.Register(calculatorKey("Bundled"),
		aop.NewBundle(0,
			&LoggingAdvice{Log: log, Recorder: recorder},
			&LoggingAdvice{Context: "2nd", Log: log, Recorder: recorder})); err != nil {
		return err
	}

	if err := registry.RegisterTypes(calculatorKey("TypeListMethod"),
		reflect.TypeOf((*LoggingAdvice)(nil)),
		reflect.TypeOf((*ValidationAdvice)(nil))); err != nil {
		return err
	}

	if err := registry.Register(calculatorKey("GetValueAsync"),
		&Async1Advice{Delay: 10 * time.Millisecond},
		&Async2Advice{BaseAdvice: aop.BaseAdvice{OrderVal: 1}, Delay: 20 * time.Millisecond}); err != nil {
		return err
	}

	return nil
}
