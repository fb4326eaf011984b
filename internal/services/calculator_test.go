package services

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"goaspect/pkg/aop"
	"goaspect/pkg/proxy"
)

// newWiredCalculator builds a fresh Generator/Registry/Dispatcher trio,
// registers the Calculator aspect, and returns a proxy-backed Calculator
// ready for the spec.md §8 scenarios, each test getting its own isolated
// world instead of sharing global state.
func newWiredCalculator(t *testing.T, initial float64) (Calculator, *[]string, *calculatorImpl) {
	t.Helper()

	gen := proxy.NewGenerator()
	registry := aop.NewRegistry()
	var recorder []string
	require.NoError(t, RegisterCalculatorAspect(gen, registry, &recorder))

	dispatcher := aop.NewDispatcher(registry, aop.WithInstanceProvider(func(typ reflect.Type) (interface{}, error) {
		switch typ {
		case reflect.TypeOf((*LoggingAdvice)(nil)):
			return &LoggingAdvice{Recorder: &recorder}, nil
		case reflect.TypeOf((*ValidationAdvice)(nil)):
			return &ValidationAdvice{}, nil
		default:
			return nil, &aop.ConfigurationError{Reason: "unexpected type " + typ.String()}
		}
	}))

	original := NewCalculator(initial)
	wrapped, err := gen.Wrap(original, dispatcher)
	require.NoError(t, err)

	calc, ok := wrapped.(Calculator)
	require.True(t, ok)
	return calc, &recorder, original
}

func TestCalculator_OneAdvice(t *testing.T) {
	defer goleak.VerifyNone(t)

	calc, recorder, _ := newWiredCalculator(t, 10)
	result, err := calc.OneAdvice(2)
	require.NoError(t, err)
	assert.Equal(t, 5.0, result.X)
	assert.Contains(t, *recorder, "Entering OneAdvice")
	assert.Contains(t, *recorder, "Exiting OneAdvice")
}

func TestCalculator_OneAdvice_ClampsToFloor(t *testing.T) {
	calc, _, _ := newWiredCalculator(t, 2)
	result, err := calc.OneAdvice(100)
	require.NoError(t, err)
	assert.Equal(t, 1.0, result.X)
}

func TestCalculator_Chained_CachesSecondCall(t *testing.T) {
	calc, recorder, _ := newWiredCalculator(t, 10)

	first, err := calc.Chained(3)
	require.NoError(t, err)
	assert.Equal(t, 30.0, first.X)
	assert.Contains(t, *recorder, "Entering Chained")

	*recorder = nil
	second, err := calc.Chained(3)
	require.NoError(t, err)
	assert.Same(t, first, second, "cache hit must return the exact same value")
	assert.Empty(t, *recorder, "Logging/Validation must not run on a cache hit")
}

func TestCalculator_Chained_ValidationRejectsBadArgument(t *testing.T) {
	calc, _, _ := newWiredCalculator(t, 10)

	_, err := calc.Chained(1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestCalculator_Chained_DistinctArgsBypassCache(t *testing.T) {
	calc, _, _ := newWiredCalculator(t, 10)

	a, err := calc.Chained(2)
	require.NoError(t, err)
	b, err := calc.Chained(4)
	require.NoError(t, err)
	assert.NotEqual(t, a.X, b.X)
}

func TestCalculator_Bundled_FlattensBothLoggingAdvices(t *testing.T) {
	calc, recorder, _ := newWiredCalculator(t, 7)

	result, err := calc.Bundled()
	require.NoError(t, err)
	assert.Equal(t, 7.0, result.X)

	assert.Equal(t, []string{
		"Entering Bundled",
		"Entering Bundled [2nd]",
		"Exiting Bundled [2nd]",
		"Exiting Bundled",
	}, *recorder)
}

func TestCalculator_TypeListMethod_ResolvesThroughInstanceProvider(t *testing.T) {
	calc, recorder, _ := newWiredCalculator(t, 4)

	result, err := calc.TypeListMethod()
	require.NoError(t, err)
	assert.Equal(t, 4.0, result.X)
	assert.Contains(t, *recorder, "Entering TypeListMethod")
}

func TestCalculator_GetValueAsync(t *testing.T) {
	calc, _, original := newWiredCalculator(t, 0)

	// Async1Advice synchronously waits out its own delay before letting
	// the call proceed, so dispatch itself takes at least that long;
	// Async2Advice's independent timer runs concurrently in the
	// background and never blocks dispatch.
	start := time.Now()
	future := calc.GetValueAsync(context.Background())
	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, 10*time.Millisecond)
	assert.Less(t, elapsed, 20*time.Millisecond, "Async2's independent timer must not block dispatch")

	value, err := aop.AwaitAs[float64](context.Background(), future)
	require.NoError(t, err)
	assert.Equal(t, 0.5, value)
	assert.Equal(t, 1, original.bodyCalls, "the underlying body must run exactly once")
}

func TestCalculator_BackReferenceSlotIsWired(t *testing.T) {
	calc, _, original := newWiredCalculator(t, 1)

	// The slot is written on the first dispatch through the wrapper.
	_, err := calc.Bundled()
	require.NoError(t, err)

	// original.Proxy must now point back at the wrapper, not at original
	// itself, so calls the impl makes on its own proxy field re-enter
	// interception instead of bypassing it.
	require.NotNil(t, original.Proxy)
	assert.Same(t, calc, original.Proxy)
}

func TestGenerator_Describe_RejectsNonOverridablePointcut(t *testing.T) {
	gen := proxy.NewGenerator()
	_, err := gen.Describe(calculatorType, calculatorInterfaceType, []string{"NoSuchMethod"}, calculatorWrapperFactory)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not overridable")
	assert.False(t, gen.IsAspectTarget(calculatorType), "a failed Describe must not publish a partial proxy type")
}
