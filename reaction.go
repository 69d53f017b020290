package reactor

import (
	"fmt"
	"time"
)

// Deadline pairs a logical-to-physical lag bound with a handler invoked
// when a reaction's trigger arrives later, in physical time, than the
// bound permits. The handler runs instead of the reaction's normal
// body for that firing.
type Deadline struct {
	Lag     time.Duration
	Handler ReactionBody
}

// ReactionBody is the user-supplied logic of a reaction. ctx carries the
// current tag and the environment's logger; the reaction reads its
// triggers/dependencies and writes its antidependencies/schedulable
// actions through the typed ports/actions it closed over at
// construction time.
type ReactionBody func(ctx *ReactionContext) error

// ReactionContext is passed to a reaction body on every firing.
type ReactionContext struct {
	Tag     Tag
	Logger  Logger
	reactor *Reactor
	source  *Reaction
	env     *Environment
}

// Reaction is one reactor's unit of executable logic: a body plus the
// set of ports and actions it reads (triggers, dependencies), writes
// (antidependencies), and may schedule (schedulable actions). Priority
// breaks ties between reactions of the same reactor when more than one
// is runnable at the same tag; the dependency graph never orders two
// reactions of the same reactor by anything else.
type Reaction struct {
	elementBase
	body             ReactionBody
	priority         int
	triggers         []ReactorElement
	dependencies     []Port
	antidependencies []Port
	schedulable      map[Action]bool
	deadline         *Deadline
	index            int // assigned by calculateIndexes during Assemble
}

// NewReaction constructs a reaction owned by container with the given
// priority. Priority must be nonzero, which is checked here, and unique
// among its reactor's own reactions, which is validated when the reactor
// is added to the environment's dependency graph during Assemble.
func NewReaction(name string, container *Reactor, priority int, body ReactionBody) (*Reaction, error) {
	if priority == 0 {
		return nil, fmt.Errorf("%w: reaction %q in %s", ErrInvalidPriority, name, container.FQN())
	}
	base, err := newElementBase(name, container, container.Environment())
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, fmt.Errorf("%w: reaction %q must have a body", ErrElementNil, name)
	}
	return &Reaction{
		elementBase: base,
		body:        body,
		priority:    priority,
		schedulable: make(map[Action]bool),
	}, nil
}

// Priority returns the reaction's intra-reactor tie-break priority.
func (r *Reaction) Priority() int { return r.priority }

// AddTrigger declares that t's presence causes this reaction to run,
// and that the reaction may read t during its firing. An action
// trigger must be owned by this reaction's own reactor. A port trigger
// follows the same containment rule as AddDependency: an input port
// must belong to this reaction's own reactor, while an output port must
// belong to a reactor directly contained by it.
func (r *Reaction) AddTrigger(t ReactorElement) error {
	switch v := t.(type) {
	case Port:
		if err := r.checkDependencyPort(v); err != nil {
			return err
		}
	case Action:
		if v.Container() != r.Container() {
			return fmt.Errorf("%w: reaction %s may only trigger on actions of its own reactor, got %s",
				ErrStructuralViolation, r.FQN(), v.FQN())
		}
	default:
		return fmt.Errorf("%w: trigger must be a port or action, got %T", ErrStructuralViolation, t)
	}
	r.triggers = append(r.triggers, t)
	return nil
}

// AddDependency declares that the reaction may read p, without p's
// presence alone causing the reaction to run. An input port must
// belong to the reaction's own reactor; an output port must belong to
// a reactor directly contained by the reaction's own reactor, which
// lets a parent reaction observe a child's output without an explicit
// binding.
func (r *Reaction) AddDependency(p Port) error {
	if err := r.checkDependencyPort(p); err != nil {
		return err
	}
	r.dependencies = append(r.dependencies, p)
	return nil
}

// AddAntidependency declares that the reaction may write p. An output
// port must belong to the reaction's own reactor; an input port must
// belong to a reactor directly contained by the reaction's own reactor,
// which lets a parent reaction drive a child's input without an
// explicit binding.
func (r *Reaction) AddAntidependency(p Port) error {
	if err := r.checkAntidependencyPort(p); err != nil {
		return err
	}
	r.antidependencies = append(r.antidependencies, p)
	return nil
}

// AddSchedulableAction declares that the reaction may schedule a, via
// ScheduleLogical. Only logical actions may be scheduled by a reaction,
// and only actions owned by the reaction's own reactor may be declared
// schedulable.
func (r *Reaction) AddSchedulableAction(a Action) error {
	if a.Kind() != KindLogical {
		return fmt.Errorf("%w: reaction %s may only schedule logical actions, %s is %s",
			ErrInvalidSchedule, r.FQN(), a.FQN(), a.Kind())
	}
	if a.Container() != r.Container() {
		return fmt.Errorf("%w: reaction %s may only schedule actions of its own reactor, got %s",
			ErrStructuralViolation, r.FQN(), a.FQN())
	}
	r.schedulable[a] = true
	return nil
}

// SetDeadline attaches a deadline to the reaction.
func (r *Reaction) SetDeadline(d Deadline) {
	r.deadline = &d
}

// checkDependencyPort validates a port read as a trigger or dependency:
// an input port must belong to this reaction's own reactor; an output
// port must belong to a reactor directly contained by this reaction's
// own reactor.
func (r *Reaction) checkDependencyPort(p Port) error {
	if p.Direction() == Input {
		if p.Container() != r.Container() {
			return fmt.Errorf("%w: reaction %s may only depend on input ports of its own reactor, got %s",
				ErrStructuralViolation, r.FQN(), p.FQN())
		}
		return nil
	}
	if p.Container().Container() != r.Container() {
		return fmt.Errorf("%w: reaction %s may only depend on output ports of a directly contained reactor, got %s",
			ErrStructuralViolation, r.FQN(), p.FQN())
	}
	return nil
}

// checkAntidependencyPort validates a port written as an antidependency:
// an output port must belong to this reaction's own reactor; an input
// port must belong to a reactor directly contained by this reaction's
// own reactor.
func (r *Reaction) checkAntidependencyPort(p Port) error {
	if p.Direction() == Output {
		if p.Container() != r.Container() {
			return fmt.Errorf("%w: reaction %s may only write output ports of its own reactor, got %s",
				ErrStructuralViolation, r.FQN(), p.FQN())
		}
		return nil
	}
	if p.Container().Container() != r.Container() {
		return fmt.Errorf("%w: reaction %s may only write input ports of a directly contained reactor, got %s",
			ErrStructuralViolation, r.FQN(), p.FQN())
	}
	return nil
}

// canSchedule reports whether this reaction declared a as schedulable.
func (r *Reaction) canSchedule(a Action) bool {
	return r.schedulable[a]
}

// fire invokes the reaction body, or its deadline handler if the
// reaction has a deadline and the lag between tag.Time and the current
// physical time exceeds it.
func (r *Reaction) fire(tag Tag, logger Logger, clock PhysicalClock, env *Environment) error {
	body := r.body
	if r.deadline != nil {
		lag := clock.Now().Sub(tag.Time)
		if lag > r.deadline.Lag {
			logger.Warn("reaction deadline exceeded", "reaction", r.FQN(), "lag", lag.String())
			body = r.deadline.Handler
		}
	}
	ctx := &ReactionContext{Tag: tag, Logger: logger, reactor: r.Container(), source: r, env: env}
	return body(ctx)
}

// ScheduleLogical schedules a, which the firing reaction must have
// declared via AddSchedulableAction, for delay after the current tag.
// Scheduling an action the reaction did not declare raises
// ErrInvalidSchedule.
func ScheduleLogical[T any](ctx *ReactionContext, a *LogicalAction[T], delay time.Duration, value T) error {
	if !ctx.source.canSchedule(a) {
		return fmt.Errorf("%w: reaction %s did not declare %s as schedulable", ErrInvalidSchedule, ctx.source.FQN(), a.FQN())
	}
	if delay < a.MinDelay() {
		delay = a.MinDelay()
	}
	tag := ctx.env.scheduler.CurrentTag().Delay(delay)
	ctx.env.scheduler.enqueue(tag, func() { a.setValue(value) }, a)
	return nil
}
