package tp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeString(t *testing.T) {
	for _, tc := range []struct {
		t    Type
		str  string
		size int
	}{
		{Int32, "i32", 4},
		{Unit, "unit", 0},
		{Pointer(Int32), "*i32", 4},
		{NewArray(Int32, 10), "[i32, 10]", 40},
		{NewArray(NewArray(Int32, 2), 3), "[[i32, 2], 3]", 24},
		{NewFunc(Int32), "(): i32", 0},
		{NewFunc(Unit, Int32, Pointer(Int32)), "(i32, *i32)", 0},
	} {
		assert.Equal(t, tc.str, tc.t.String())
		assert.Equal(t, tc.size, tc.t.Size(), "%v", tc.t)
	}
}

func TestTypeEqual(t *testing.T) {
	assert.True(t, Equal(Int32, Int32))
	assert.True(t, Int32 == Int32)
	assert.False(t, Equal(Int32, Unit))
	assert.True(t, Equal(Pointer(Int32), Pointer(Int32)))
	assert.False(t, Equal(Pointer(Int32), Pointer(Unit)))
	assert.True(t, Equal(NewFunc(Int32, Int32), NewFunc(Int32, Int32)))
	assert.False(t, Equal(NewFunc(Int32, Int32), NewFunc(Int32)))

	assert.True(t, IsUnit(nil))
}
