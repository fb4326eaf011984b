package aop

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderRecordingAdvice struct {
	BaseAdvice
	name    string
	journal *[]string
	err     error
}

func (a *orderRecordingAdvice) Apply(inv *Invocation, next func() error) error {
	*a.journal = append(*a.journal, "before:"+a.name)
	err := next()
	*a.journal = append(*a.journal, "after:"+a.name)
	if a.err != nil {
		return a.err
	}
	return err
}

func newTestInvocation(executor Executor) *Invocation {
	return NewInvocation(struct{}{}, MethodKey{Name: "Test"}, nil, executor)
}

func TestChain_RunsInOrderAroundProceed(t *testing.T) {
	var journal []string
	a := &orderRecordingAdvice{name: "A", journal: &journal}
	b := &orderRecordingAdvice{BaseAdvice: BaseAdvice{OrderVal: 1}, name: "B", journal: &journal}

	chain, err := NewChain(b, a) // deliberately out of order: sorted by Order
	require.NoError(t, err)
	require.Equal(t, 2, chain.Len())

	inv := newTestInvocation(func(args []interface{}) ([]interface{}, error) {
		journal = append(journal, "body")
		return nil, nil
	})
	require.NoError(t, chain.Run(inv))

	assert.Equal(t, []string{"before:A", "before:B", "body", "after:B", "after:A"}, journal)
}

func TestChain_EmptyChainProceedsDirectly(t *testing.T) {
	chain, err := NewChain()
	require.NoError(t, err)
	assert.Equal(t, 0, chain.Len())

	called := false
	inv := newTestInvocation(func(args []interface{}) ([]interface{}, error) {
		called = true
		return nil, nil
	})
	require.NoError(t, chain.Run(inv))
	assert.True(t, called)
}

func TestChain_BundleFlattensAtDeclaredPosition(t *testing.T) {
	var journal []string
	outer := &orderRecordingAdvice{BaseAdvice: BaseAdvice{OrderVal: 2}, name: "outer", journal: &journal}
	inner1 := &orderRecordingAdvice{name: "inner1", journal: &journal}
	inner2 := &orderRecordingAdvice{name: "inner2", journal: &journal}

	chain, err := NewChain(outer, NewBundle(0, inner1, inner2))
	require.NoError(t, err)
	require.Equal(t, 3, chain.Len())

	inv := newTestInvocation(func(args []interface{}) ([]interface{}, error) { return nil, nil })
	require.NoError(t, chain.Run(inv))

	assert.Equal(t, []string{"before:inner1", "before:inner2", "before:outer", "after:outer", "after:inner2", "after:inner1"}, journal)
}

func TestChain_SwallowExceptionsStopsPropagationAtDeclaringAdvice(t *testing.T) {
	var journal []string
	failing := &orderRecordingAdvice{name: "failing", journal: &journal}
	swallower := &orderRecordingAdvice{BaseAdvice: BaseAdvice{OrderVal: 1, Swallow: true}, name: "swallower", journal: &journal}

	chain, err := NewChain(swallower, failing)
	require.NoError(t, err)

	inv := newTestInvocation(func(args []interface{}) ([]interface{}, error) {
		return nil, errors.New("boom")
	})
	err = chain.Run(inv)
	require.NoError(t, err, "the swallowing advice's own call to next must come back clean")
	assert.Equal(t, "boom", inv.Err.Error(), "the raised error is still recorded on the invocation")
}

func TestChain_NonSwallowingAdvicePropagatesError(t *testing.T) {
	failing := &orderRecordingAdvice{name: "failing", journal: &[]string{}}
	nonSwallower := &orderRecordingAdvice{BaseAdvice: BaseAdvice{OrderVal: 1}, name: "nonSwallower", journal: &[]string{}}

	chain, err := NewChain(nonSwallower, failing)
	require.NoError(t, err)

	inv := newTestInvocation(func(args []interface{}) ([]interface{}, error) {
		return nil, errors.New("boom")
	})
	err = chain.Run(inv)
	require.Error(t, err)
	assert.Equal(t, "boom", err.Error())
}

func TestChain_AdviceBodyErrorPropagatesImmediately(t *testing.T) {
	var journal []string
	// An advice whose own body fails before ever calling next: the error
	// must propagate with no swallow-exceptions handling since it never
	// crossed back through a proceed/next call.
	a := AdviceFunc{
		ApplyFunc: func(inv *Invocation, next func() error) error {
			journal = append(journal, "A")
			return errors.New("advice body failed")
		},
	}
	chain, err := NewChain(a)
	require.NoError(t, err)

	inv := newTestInvocation(func(args []interface{}) ([]interface{}, error) { return nil, nil })
	err = chain.Run(inv)
	require.Error(t, err)
	assert.Equal(t, "advice body failed", err.Error())
	assert.Equal(t, []string{"A"}, journal)
}

func TestResolveTypeChain_RequiresInstanceProvider(t *testing.T) {
	key := MethodKey{Name: "Test"}
	adviceType := reflect.TypeOf((*orderRecordingAdvice)(nil))
	_, err := ResolveTypeChain(key, []interface{}{adviceType}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no instance provider")
}

func TestResolveTypeChain_ResolvesEachType(t *testing.T) {
	key := MethodKey{Name: "Test"}
	adviceType := reflect.TypeOf((*orderRecordingAdvice)(nil))
	var journal []string

	chain, err := ResolveTypeChain(key, []interface{}{adviceType}, func(t reflect.Type) (interface{}, error) {
		return &orderRecordingAdvice{name: "resolved", journal: &journal}, nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, chain.Len())
}

func TestResolveTypeChain_RejectsNonAdviceType(t *testing.T) {
	key := MethodKey{Name: "Test"}
	notAnAdviceType := reflect.TypeOf(42)

	_, err := ResolveTypeChain(key, []interface{}{notAnAdviceType}, func(t reflect.Type) (interface{}, error) {
		return 42, nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not implement Advice")
}
