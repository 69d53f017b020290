package reactor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogicalActionGetReflectsScheduledValue(t *testing.T) {
	env := NewEnvironment("app")
	r, err := NewReactor("r", env, nil)
	require.NoError(t, err)
	a, err := AddLogicalAction[string](r, "a", 0)
	require.NoError(t, err)

	_, present := a.Get()
	assert.False(t, present)

	a.setValue("hi")
	v, present := a.Get()
	require.True(t, present)
	assert.Equal(t, "hi", v)

	a.clearPresence()
	_, present = a.Get()
	assert.False(t, present)
}

func TestPhysicalActionRespectsMinDelay(t *testing.T) {
	env := NewEnvironment("app")
	r, err := NewReactor("r", env, nil)
	require.NoError(t, err)
	a, err := AddPhysicalAction[int](r, "a", 50*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 50*time.Millisecond, a.MinDelay())
}

func TestNewTimerRejectsEmptyName(t *testing.T) {
	env := NewEnvironment("app")
	r, err := NewReactor("r", env, nil)
	require.NoError(t, err)

	_, err = NewTimer("", r, 0, 0)
	assert.ErrorIs(t, err, ErrNameEmpty)
}

func TestActionKindString(t *testing.T) {
	assert.Equal(t, "timer", KindTimer.String())
	assert.Equal(t, "logical", KindLogical.String())
	assert.Equal(t, "physical", KindPhysical.String())
	assert.Equal(t, "shutdown", KindShutdown.String())
}
