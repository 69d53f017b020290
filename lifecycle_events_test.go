package reactor

import (
	"context"
	"testing"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloudEventsObserverSendsPhaseTransitionEvent(t *testing.T) {
	var received cloudevents.Event
	observer := NewCloudEventsObserver("reactorcore/test", func(ctx context.Context, ev cloudevents.Event) error {
		received = ev
		return nil
	})

	err := observer.OnPhaseTransition(PhaseConstruction, PhaseAssembly)
	require.NoError(t, err)

	assert.Equal(t, "com.reactorcore.phase.transition", received.Type())
	assert.Equal(t, "reactorcore/test", received.Source())
	assert.Contains(t, string(received.Data()), "Construction")
	assert.Contains(t, string(received.Data()), "Assembly")
}

func TestCloudEventsObserverPropagatesSendError(t *testing.T) {
	boom := assert.AnError
	observer := NewCloudEventsObserver("src", func(ctx context.Context, ev cloudevents.Event) error {
		return boom
	})

	err := observer.OnPhaseTransition(PhaseAssembly, PhaseStartup)
	assert.ErrorIs(t, err, boom)
}

func TestCloudEventsObserverWithNilSendIsNoop(t *testing.T) {
	observer := &CloudEventsObserver{Source: "src"}
	assert.NoError(t, observer.OnPhaseTransition(PhaseConstruction, PhaseAssembly))
}
