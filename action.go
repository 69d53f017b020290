package reactor

import "time"

// ActionKind distinguishes the four action flavors. Only logical and
// physical actions may be scheduled by reactions or external threads;
// timers are scheduled exclusively by the scheduler itself and
// shutdown is scheduled exclusively by the environment.
type ActionKind int

const (
	// KindTimer fires on a period after an initial offset, entirely
	// under the scheduler's control.
	KindTimer ActionKind = iota
	// KindLogical is scheduled by a reaction with a logical delay,
	// landing on the current or a future logical time.
	KindLogical
	// KindPhysical is scheduled by any goroutine (including ones
	// outside the reactor tree) and is tagged against physical time.
	KindPhysical
	// KindShutdown fires exactly once, at the end of the program.
	KindShutdown
)

func (k ActionKind) String() string {
	switch k {
	case KindTimer:
		return "timer"
	case KindLogical:
		return "logical"
	case KindPhysical:
		return "physical"
	case KindShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// Action is the common surface of every action. A reaction that reads
// or schedules an action interacts with it only through this interface
// or the typed LogicalAction[T]/PhysicalAction[T] that embed it.
type Action interface {
	ReactorElement
	Kind() ActionKind
	MinDelay() time.Duration
	IsPresent() bool
	clearPresence()
}

type actionBase struct {
	elementBase
	kind     ActionKind
	minDelay time.Duration
	present  bool
}

func (a *actionBase) Kind() ActionKind          { return a.kind }
func (a *actionBase) MinDelay() time.Duration   { return a.minDelay }
func (a *actionBase) clearPresence()            { a.present = false }
func (a *actionBase) IsPresent() bool           { return a.present }
func (a *actionBase) markPresent()              { a.present = true }

// Timer fires its first event at construction-declared offset after
// Startup, then periodically every Period thereafter. A zero Period
// means the timer fires exactly once.
type Timer struct {
	actionBase
	Offset time.Duration
	Period time.Duration
}

// NewTimer constructs a timer owned by container. Offset delays the
// first firing relative to the environment's start time; Period, if
// nonzero, reschedules the timer that many logical-time units later
// each time it fires.
func NewTimer(name string, container *Reactor, offset, period time.Duration) (*Timer, error) {
	base, err := newElementBase(name, container, container.Environment())
	if err != nil {
		return nil, err
	}
	return &Timer{
		actionBase: actionBase{elementBase: base, kind: KindTimer},
		Offset:     offset,
		Period:     period,
	}, nil
}

// LogicalAction[T] carries an optional value of type T and is scheduled
// by a reaction at a logical delay from the current tag. Only
// reactions that declared this action via AddSchedulableAction may
// schedule it.
type LogicalAction[T any] struct {
	actionBase
	value *T
}

// NewLogicalAction constructs a logical action owned by container, with
// minDelay as its minimum admissible scheduling delay.
func NewLogicalAction[T any](name string, container *Reactor, minDelay time.Duration) (*LogicalAction[T], error) {
	base, err := newElementBase(name, container, container.Environment())
	if err != nil {
		return nil, err
	}
	return &LogicalAction[T]{actionBase: actionBase{elementBase: base, kind: KindLogical, minDelay: minDelay}}, nil
}

// Get returns the value scheduled for the current instant, if this
// action is present.
func (a *LogicalAction[T]) Get() (T, bool) {
	if a.value == nil {
		var zero T
		return zero, false
	}
	return *a.value, true
}

func (a *LogicalAction[T]) setValue(v T) {
	vv := v
	a.value = &vv
	a.markPresent()
}

func (a *LogicalAction[T]) clearPresence() {
	a.actionBase.clearPresence()
	a.value = nil
}

// PhysicalAction[T] is identical to LogicalAction[T] in every respect
// except that it may be scheduled from any goroutine, including ones
// outside the reactor tree (timer callbacks, network handlers, cron
// jobs). Scheduling a physical action always requires holding the
// environment's scheduler lock, obtained via Environment.Lock/Unlock.
type PhysicalAction[T any] struct {
	actionBase
	value *T
}

// NewPhysicalAction constructs a physical action owned by container,
// with minDelay as its minimum admissible scheduling delay.
func NewPhysicalAction[T any](name string, container *Reactor, minDelay time.Duration) (*PhysicalAction[T], error) {
	base, err := newElementBase(name, container, container.Environment())
	if err != nil {
		return nil, err
	}
	return &PhysicalAction[T]{actionBase: actionBase{elementBase: base, kind: KindPhysical, minDelay: minDelay}}, nil
}

// Get returns the value scheduled for the current instant, if this
// action is present.
func (a *PhysicalAction[T]) Get() (T, bool) {
	if a.value == nil {
		var zero T
		return zero, false
	}
	return *a.value, true
}

func (a *PhysicalAction[T]) setValue(v T) {
	vv := v
	a.value = &vv
	a.markPresent()
}

func (a *PhysicalAction[T]) clearPresence() {
	a.actionBase.clearPresence()
	a.value = nil
}

// ShutdownAction fires exactly once, during the single shutdown instant
// that SyncShutdown/AsyncShutdown schedules. It carries no value.
type ShutdownAction struct {
	actionBase
}

func newShutdownAction(container *Reactor) (*ShutdownAction, error) {
	base, err := newElementBase("shutdown", container, container.Environment())
	if err != nil {
		return nil, err
	}
	return &ShutdownAction{actionBase: actionBase{elementBase: base, kind: KindShutdown}}, nil
}
