package reactor

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	transitions [][2]Phase
}

func (r *recordingObserver) OnPhaseTransition(from, to Phase) error {
	r.transitions = append(r.transitions, [2]Phase{from, to})
	return nil
}

func TestLifecycleObserverSeesEveryTransition(t *testing.T) {
	obs := &recordingObserver{}
	env := NewEnvironment("app", WithLifecycleObserver(obs))

	require.NoError(t, env.Assemble(nil))
	require.NoError(t, env.Startup())

	require.GreaterOrEqual(t, len(obs.transitions), 3)
	assert.Equal(t, PhaseConstruction, obs.transitions[0][0])
	assert.Equal(t, PhaseAssembly, obs.transitions[0][1])
	assert.Equal(t, PhaseAssembly, obs.transitions[1][0])
	assert.Equal(t, PhaseStartup, obs.transitions[1][1])
	assert.Equal(t, PhaseStartup, obs.transitions[2][0])
	assert.Equal(t, PhaseExecution, obs.transitions[2][1])
}

func TestExportDependencyGraphRequiresAssemble(t *testing.T) {
	env := NewEnvironment("app")
	err := env.ExportDependencyGraph("/tmp/whatever.dot")
	assert.ErrorIs(t, err, ErrPhaseViolation)
}

func TestWithDependencyGraphExportWritesFileOnSuccess(t *testing.T) {
	path := t.TempDir() + "/graph.dot"
	env := NewEnvironment("app", WithDependencyGraphExport(path))
	r, err := NewReactor("r", env, nil)
	require.NoError(t, err)
	_, err = AddReaction(r, "rx", 1, func(ctx *ReactionContext) error { return nil })
	require.NoError(t, err)

	require.NoError(t, env.Assemble(nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "digraph {")
	assert.Contains(t, string(data), "rankdir=LR;")
}

func TestWithConfigWiresOperationalParameters(t *testing.T) {
	graphPath := t.TempDir() + "/graph.dot"
	cfg := EnvironmentConfig{
		Name:                "configured",
		ShutdownTimeout:     250 * time.Millisecond,
		DependencyGraphPath: graphPath,
		LogLevel:            "debug",
	}

	env := NewEnvironment("app", WithConfig(cfg))
	assert.Equal(t, "configured", env.Name())

	r, err := NewReactor("r", env, nil)
	require.NoError(t, err)
	_, err = AddReaction(r, "rx", 1, func(ctx *ReactionContext) error { return nil })
	require.NoError(t, err)

	require.NoError(t, env.Assemble(nil))

	data, err := os.ReadFile(graphPath)
	require.NoError(t, err, "WithConfig's DependencyGraphPath must drive Assemble's DOT export")
	assert.Contains(t, string(data), "digraph {")

	ctx, cancel := env.ShutdownContext(context.Background())
	defer cancel()
	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(250*time.Millisecond), deadline, 100*time.Millisecond)
}
