package compare

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

type point struct {
	X, Y int
}

type tagged struct {
	Name string
	Tags []string
}

func TestShallowReflexive(t *testing.T) {
	slice := []int{1, 2}
	m := map[string]int{"a": 1}
	p := &point{1, 2}
	fn := func() {}

	values := []any{0, -3, "x", true, 3.5, math.NaN(), slice, m, p, point{1, 2}, fn, nil}
	for _, v := range values {
		assert.True(t, ShallowEqual(v, v), "ShallowEqual(%v, %v)", v, v)
	}
}

func TestShallowScalars(t *testing.T) {
	assert.True(t, ShallowEqual(5, 5))
	assert.False(t, ShallowEqual(5, 6))
	assert.False(t, ShallowEqual(5, int64(5)), "different types are never equal")
	assert.True(t, ShallowEqual("a", "a"))
	assert.False(t, ShallowEqual(nil, 0))
}

func TestShallowReferencesByIdentity(t *testing.T) {
	a := []int{1, 2, 3}
	b := []int{1, 2, 3}
	assert.False(t, ShallowEqual(a, b))
	assert.False(t, ShallowEqual(a, a[:2]), "shorter view of the same array differs")

	p1, p2 := &point{1, 2}, &point{1, 2}
	assert.False(t, ShallowEqual(p1, p2))
	assert.True(t, ShallowEqual(p1, p1))

	var nilSlice []int
	assert.True(t, ShallowEqual(nilSlice, []int(nil)))
	assert.False(t, ShallowEqual(nilSlice, []int{}))
}

func TestShallowStructFields(t *testing.T) {
	tags := []string{"x"}
	assert.True(t, ShallowEqual(tagged{"a", tags}, tagged{"a", tags}))
	assert.False(t, ShallowEqual(tagged{"a", tags}, tagged{"a", []string{"x"}}))
	assert.True(t, ShallowEqual(point{1, 2}, point{1, 2}))
}

func TestDeepStructural(t *testing.T) {
	x := map[string][]int{"a": {1, 2}}
	y := map[string][]int{"a": {1, 2}}

	assert.True(t, DeepEqual(x, y))
	assert.False(t, ShallowEqual(x, y))
	assert.False(t, DeepEqual(x, map[string][]int{"a": {1}}))
	assert.True(t, DeepEqual(tagged{"a", []string{"x"}}, tagged{"a", []string{"x"}}))
	assert.True(t, DeepEqual(math.NaN(), math.NaN()))
}

func TestPolicy(t *testing.T) {
	a := []int{1}
	b := []int{1}

	assert.False(t, Shallow[[]int]().Equal(a, b))
	assert.True(t, Deep[[]int]().Equal(a, b))

	var zero Policy[[]int]
	assert.Equal(t, KindShallow, zero.Kind)
	assert.False(t, zero.Equal(a, b))

	byLen := Custom(func(x, y []int) bool { return len(x) == len(y) })
	assert.True(t, byLen.Equal(a, []int{9}))

	fallback := Custom[[]int](nil)
	assert.True(t, fallback.Equal(a, a))
	assert.False(t, fallback.Equal(a, b))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "shallow", KindShallow.String())
	assert.Equal(t, "deep", KindDeep.String())
	assert.Equal(t, "custom", KindCustom.String())
	assert.Equal(t, "unknown", Kind(42).String())
}
