package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tlog.app/go/errors"

	"github.com/slowlang/sysyc/compiler/ir"
)

func TestScopes(t *testing.T) {
	st := New()

	assert.True(t, st.Global())
	assert.Equal(t, 0, st.Level())

	g := NewVariable("a", ir.Value(1))
	require.NoError(t, st.Add(g))
	assert.Equal(t, 0, g.Level)

	st.Indent()
	assert.Equal(t, 1, st.Level())
	fnScope := st.Scope()

	require.NoError(t, st.Add(NewVariable("p", ir.Value(2))))

	st.EnterScope()
	assert.Equal(t, 1, st.Level())
	assert.NotEqual(t, fnScope, st.Scope())

	inner := NewConstant("a", 5)
	require.NoError(t, st.Add(inner))

	assert.Equal(t, []*Symbol{inner, g}, st.Lookup("a"))
	assert.Same(t, inner, st.Get("a"))
	assert.Same(t, inner, st.Here("a"))
	assert.Nil(t, st.Here("p"))
	assert.NotNil(t, st.Get("p"))
	assert.True(t, st.Saw(inner))
	assert.True(t, st.Saw(g))

	st.LeaveScope()

	assert.False(t, st.Saw(inner))
	assert.Same(t, g, st.Get("a"))

	st.EnterScope()
	reused := st.Scope()
	st.LeaveScope()

	assert.NotEqual(t, inner.Scope, reused, "scope ids are not reused")

	st.EnterScope()
	st.Dedent()

	assert.True(t, st.Global())
	assert.Nil(t, st.Get("p"))
}

func TestRedefinition(t *testing.T) {
	st := New()

	require.NoError(t, st.Add(NewConstant("x", 1)))

	err := st.Add(NewVariable("x", ir.Value(0)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRedefined))

	st.EnterScope()
	assert.NoError(t, st.Add(NewVariable("x", ir.Value(0))), "shadowing is allowed")
}

func TestUnbalanced(t *testing.T) {
	st := New()

	assert.Panics(t, func() { st.LeaveScope() })
	assert.Panics(t, func() { st.Dedent() })

	st.Indent()
	assert.Panics(t, func() { st.LeaveScope() })
}

func TestConstantDefaults(t *testing.T) {
	s := NewConstant("c", 7)

	assert.Equal(t, Constant, s.Tag)
	assert.Equal(t, ir.NoValue, s.Value)
	assert.Equal(t, "const", s.Tag.String())

	f := NewFunction("f", ir.Func(3), nil, nil)
	assert.Equal(t, ir.NoValue, f.Value)
	assert.Equal(t, ir.Func(3), f.Func)
}
