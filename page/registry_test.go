package page

import (
	"errors"
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestRegistryConflict(t *testing.T) {
	registry := NewRegistry[int]()
	assert.Equal(t, registry.Register("a", 1), nil)
	assert.Equal(t, registry.Register("b", 2), nil)

	err := registry.Register("a", 3)
	assert.Equal(t, errors.Is(err, ErrAlreadyRegistered), true)

	// the first binding wins
	v, ok := registry.Get("a")
	assert.Equal(t, ok, true)
	assert.Equal(t, v, 1)

	_, ok = registry.Get("c")
	assert.Equal(t, ok, false)

	assert.Equal(t, registry.Names(), []string{"a", "b"})
}

func TestRegistryMustRegisterPanics(t *testing.T) {
	registry := NewRegistry[int]()
	registry.MustRegister("a", 1)

	r := HandleError(func() {
		registry.MustRegister("a", 2)
	})
	assert.NotEqual(t, r, nil)
	assert.Equal(t, errors.Is(r.(error), ErrAlreadyRegistered), true)
}

func TestMergeRegistryBuiltIns(t *testing.T) {
	assert.Equal(t, NewMergeRegistry().Names(), []string{
		MergeAddChartData,
		MergeAppend,
		MergeExtend,
		MergePrepend,
	})
}
