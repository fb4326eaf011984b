package aop

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvocation_ProceedInvokesExecutorAndRecordsResult(t *testing.T) {
	calls := 0
	inv := NewInvocation("target", MethodKey{Name: "M"}, []interface{}{1, 2}, func(args []interface{}) ([]interface{}, error) {
		calls++
		return []interface{}{args[0].(int) + args[1].(int)}, nil
	})

	vals, err := inv.Proceed()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{3}, vals)
	assert.Equal(t, 3, inv.Return())
	assert.Equal(t, 1, inv.ProceedCount())
}

func TestInvocation_RepeatedProceedReRunsExecutor(t *testing.T) {
	calls := 0
	inv := NewInvocation("target", MethodKey{Name: "M"}, nil, func(args []interface{}) ([]interface{}, error) {
		calls++
		return []interface{}{calls}, nil
	})

	first, _ := inv.Proceed()
	second, _ := inv.Proceed()
	assert.Equal(t, []interface{}{1}, first)
	assert.Equal(t, []interface{}{2}, second)
	assert.Equal(t, 2, inv.ProceedCount())
	assert.Equal(t, 2, inv.Return())
}

func TestInvocation_ProceedSurfacesExecutorError(t *testing.T) {
	inv := NewInvocation("target", MethodKey{Name: "M"}, nil, func(args []interface{}) ([]interface{}, error) {
		return nil, errors.New("executor failed")
	})

	_, err := inv.Proceed()
	require.Error(t, err)
	assert.Equal(t, err, inv.Err)
}

func TestInvocation_SetReturnShortCircuits(t *testing.T) {
	inv := NewInvocation("target", MethodKey{Name: "M"}, nil, func(args []interface{}) ([]interface{}, error) {
		t.Fatal("executor must not run when SetReturn short-circuits")
		return nil, nil
	})
	inv.SetReturn("cached")
	assert.Equal(t, "cached", inv.Return())
	assert.Equal(t, 0, inv.ProceedCount())
}

func TestInvocation_InitializeAwaitFiresHooksExactlyOnce(t *testing.T) {
	inv := NewInvocation("target", MethodKey{Name: "M"}, nil, func(args []interface{}) ([]interface{}, error) { return nil, nil })

	fired := 0
	inv.OnBeforeAwait(func() { fired++ })
	inv.OnBeforeAwait(func() { fired++ })

	inv.InitializeAwait()
	inv.InitializeAwait()
	inv.InitializeAwait()

	assert.Equal(t, 2, fired, "each registered hook fires once total, regardless of how many times InitializeAwait is called")
}

func TestInvocation_ReturnIsNilWithNoReturnValues(t *testing.T) {
	inv := NewInvocation("target", MethodKey{Name: "M"}, nil, nil)
	assert.Nil(t, inv.Return())
}

func TestMethodKey_StringIncludesTypeAndName(t *testing.T) {
	key := MethodKey{Type: nil, Name: "Foo"}
	assert.Contains(t, key.String(), "Foo")

	typed := MethodKey{Type: reflect.TypeOf(0), Name: "Foo"}
	assert.Equal(t, "int.Foo", typed.String())
}
