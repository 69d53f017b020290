package reactor

import (
	"context"
	"fmt"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

// LifecycleObserver is notified on every phase transition an Environment
// makes. Observers run synchronously on the goroutine driving the
// transition; an observer that fails logs a warning and does not block
// or abort the transition itself.
type LifecycleObserver interface {
	OnPhaseTransition(from, to Phase) error
}

// LifecycleObserverFunc adapts a function to a LifecycleObserver.
type LifecycleObserverFunc func(from, to Phase) error

func (f LifecycleObserverFunc) OnPhaseTransition(from, to Phase) error { return f(from, to) }

// CloudEventsObserver wraps every phase transition as a CloudEvent and
// hands it to a sender function, so phase transitions can be published
// to any CloudEvents-compatible transport (HTTP, a message broker, a
// log sink) without this package depending on one directly.
type CloudEventsObserver struct {
	Source string
	Send   func(context.Context, cloudevents.Event) error
	Clock  PhysicalClock
}

// NewCloudEventsObserver constructs an observer that sources events as
// source and hands each one to send.
func NewCloudEventsObserver(source string, send func(context.Context, cloudevents.Event) error) *CloudEventsObserver {
	return &CloudEventsObserver{Source: source, Send: send, Clock: SystemClock}
}

type phaseTransitionData struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// OnPhaseTransition builds a "com.reactorcore.phase.transition" event
// and delivers it via Send.
func (o *CloudEventsObserver) OnPhaseTransition(from, to Phase) error {
	if o.Send == nil {
		return nil
	}
	clock := o.Clock
	if clock == nil {
		clock = SystemClock
	}

	ev := cloudevents.NewEvent()
	ev.SetID(uuid.NewString())
	ev.SetSource(o.Source)
	ev.SetType("com.reactorcore.phase.transition")
	ev.SetTime(clock.Now())

	if err := ev.SetData(cloudevents.ApplicationJSON, phaseTransitionData{From: from.String(), To: to.String()}); err != nil {
		return fmt.Errorf("encoding phase transition event: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.Send(ctx, ev); err != nil {
		return fmt.Errorf("sending phase transition event: %w", err)
	}
	return nil
}
