package reactor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindPortsSiblingOutputToInput(t *testing.T) {
	env := NewEnvironment("app")
	p, err := NewReactor("p", env, nil)
	require.NoError(t, err)
	c, err := NewReactor("c", env, nil)
	require.NoError(t, err)

	out, err := AddOutput[int](p, "o")
	require.NoError(t, err)
	in, err := AddInput[int](c, "i")
	require.NoError(t, err)

	err = env.Assemble(func() error {
		return env.BindPorts(in, out)
	})
	require.NoError(t, err)
}

func TestBindPortsRejectsWrongDirection(t *testing.T) {
	env := NewEnvironment("app")
	p, err := NewReactor("p", env, nil)
	require.NoError(t, err)
	c, err := NewReactor("c", env, nil)
	require.NoError(t, err)

	out, err := AddOutput[int](p, "o")
	require.NoError(t, err)
	in, err := AddInput[int](c, "i")
	require.NoError(t, err)

	err = env.Assemble(func() error {
		return env.BindPorts(out, in)
	})
	assert.ErrorIs(t, err, ErrBindingViolation)
}

func TestBindPortsRejectsSecondInwardBinding(t *testing.T) {
	env := NewEnvironment("app")
	p1, err := NewReactor("p1", env, nil)
	require.NoError(t, err)
	p2, err := NewReactor("p2", env, nil)
	require.NoError(t, err)
	c, err := NewReactor("c", env, nil)
	require.NoError(t, err)

	o1, err := AddOutput[int](p1, "o")
	require.NoError(t, err)
	o2, err := AddOutput[int](p2, "o")
	require.NoError(t, err)
	in, err := AddInput[int](c, "i")
	require.NoError(t, err)

	err = env.Assemble(func() error {
		if err := env.BindPorts(in, o1); err != nil {
			return err
		}
		return env.BindPorts(in, o2)
	})
	assert.ErrorIs(t, err, ErrBindingViolation)
}

func TestBindPortsUpwardFromChildOutputToParentOutput(t *testing.T) {
	env := NewEnvironment("app")
	parent, err := NewReactor("parent", env, nil)
	require.NoError(t, err)
	child, err := NewReactor("child", env, parent)
	require.NoError(t, err)

	parentOut, err := AddOutput[int](parent, "out")
	require.NoError(t, err)
	childOut, err := AddOutput[int](child, "out")
	require.NoError(t, err)

	err = env.Assemble(func() error {
		return env.BindPorts(parentOut, childOut)
	})
	require.NoError(t, err)
}

func TestBindPortsDownwardFromParentInputToChildInput(t *testing.T) {
	env := NewEnvironment("app")
	parent, err := NewReactor("parent", env, nil)
	require.NoError(t, err)
	child, err := NewReactor("child", env, parent)
	require.NoError(t, err)

	parentIn, err := AddInput[int](parent, "in")
	require.NoError(t, err)
	childIn, err := AddInput[int](child, "in")
	require.NoError(t, err)

	err = env.Assemble(func() error {
		return env.BindPorts(childIn, parentIn)
	})
	require.NoError(t, err)
}

func TestBindPortsRejectsUnrelatedReactors(t *testing.T) {
	env := NewEnvironment("app")
	a, err := NewReactor("a", env, nil)
	require.NoError(t, err)
	bParent, err := NewReactor("bparent", env, nil)
	require.NoError(t, err)
	b, err := NewReactor("b", env, bParent)
	require.NoError(t, err)

	out, err := AddOutput[int](a, "out")
	require.NoError(t, err)
	in, err := AddInput[int](b, "in")
	require.NoError(t, err)

	err = env.Assemble(func() error {
		return env.BindPorts(in, out)
	})
	assert.ErrorIs(t, err, ErrBindingViolation)
}

func TestPortGetSetRoundtrip(t *testing.T) {
	env := NewEnvironment("app")
	r, err := NewReactor("r", env, nil)
	require.NoError(t, err)
	p, err := AddOutput[string](r, "o")
	require.NoError(t, err)

	_, present := p.Get()
	assert.False(t, present)

	p.Set("hello")
	v, present := p.Get()
	require.True(t, present)
	assert.Equal(t, "hello", v)

	p.clear()
	_, present = p.Get()
	assert.False(t, present)
}
