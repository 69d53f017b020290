package reactor

import (
	"fmt"
	"time"
)

// Reactor is a container of ports, actions, reactions, and nested
// reactors. The tree rooted at Environment's top-level reactors is
// fixed once Assembly ends: no element may be added, removed, or
// rebound afterward.
type Reactor struct {
	elementBase
	children  map[string]*Reactor
	ports     map[string]Port
	actions   map[string]Action
	reactions map[string]*Reaction
	shutdown  *ShutdownAction
}

// NewReactor constructs a top-level reactor directly owned by env, or a
// nested reactor owned by parent if parent is non-nil. Construction is
// only legal during PhaseConstruction.
func NewReactor(name string, env *Environment, parent *Reactor) (*Reactor, error) {
	if env == nil {
		return nil, fmt.Errorf("%w: reactor %q requires an environment", ErrElementNil, name)
	}
	if err := requirePhase(env.phase, PhaseConstruction, "NewReactor"); err != nil {
		return nil, err
	}
	base, err := newElementBase(name, parent, env)
	if err != nil {
		return nil, err
	}
	r := &Reactor{
		elementBase: base,
		children:    make(map[string]*Reactor),
		ports:       make(map[string]Port),
		actions:     make(map[string]Action),
		reactions:   make(map[string]*Reaction),
	}
	sd, err := newShutdownAction(r)
	if err != nil {
		return nil, err
	}
	r.shutdown = sd
	r.actions[sd.Name()] = sd

	if parent != nil {
		if err := parent.addChild(r); err != nil {
			return nil, err
		}
	} else {
		if err := env.addTopLevelReactor(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Shutdown returns this reactor's implicit shutdown action, present on
// every reactor, fired once during the shutdown instant.
func (r *Reactor) Shutdown() *ShutdownAction { return r.shutdown }

// Children returns the directly nested reactors, in no particular order.
func (r *Reactor) Children() []*Reactor {
	out := make([]*Reactor, 0, len(r.children))
	for _, c := range r.children {
		out = append(out, c)
	}
	return out
}

// Reactions returns this reactor's own reactions, in no particular order.
func (r *Reactor) Reactions() []*Reaction {
	out := make([]*Reaction, 0, len(r.reactions))
	for _, rx := range r.reactions {
		out = append(out, rx)
	}
	return out
}

// Ports returns this reactor's own ports, in no particular order.
func (r *Reactor) Ports() []Port {
	out := make([]Port, 0, len(r.ports))
	for _, p := range r.ports {
		out = append(out, p)
	}
	return out
}

// Actions returns this reactor's own actions, in no particular order.
func (r *Reactor) Actions() []Action {
	out := make([]Action, 0, len(r.actions))
	for _, a := range r.actions {
		out = append(out, a)
	}
	return out
}

func (r *Reactor) addChild(c *Reactor) error {
	if _, exists := r.children[c.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrNameNotUnique, c.FQN())
	}
	r.children[c.Name()] = c
	return nil
}

func (r *Reactor) registerPort(p Port) error {
	if _, exists := r.ports[p.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrNameNotUnique, p.FQN())
	}
	r.ports[p.Name()] = p
	return nil
}

func (r *Reactor) registerAction(a Action) error {
	if _, exists := r.actions[a.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrNameNotUnique, a.FQN())
	}
	r.actions[a.Name()] = a
	return nil
}

func (r *Reactor) registerReaction(rx *Reaction) error {
	if _, exists := r.reactions[rx.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrNameNotUnique, rx.FQN())
	}
	r.reactions[rx.Name()] = rx
	return nil
}

// AddInput constructs and registers an input port of type T on this
// reactor.
func AddInput[T any](r *Reactor, name string) (*BasePort[T], error) {
	p, err := NewPort[T](name, r, Input)
	if err != nil {
		return nil, err
	}
	if err := r.registerPort(p); err != nil {
		return nil, err
	}
	return p, nil
}

// AddOutput constructs and registers an output port of type T on this
// reactor.
func AddOutput[T any](r *Reactor, name string) (*BasePort[T], error) {
	p, err := NewPort[T](name, r, Output)
	if err != nil {
		return nil, err
	}
	if err := r.registerPort(p); err != nil {
		return nil, err
	}
	return p, nil
}

// AddTimer constructs and registers a timer on this reactor.
func AddTimer(r *Reactor, name string, offset, period time.Duration) (*Timer, error) {
	t, err := NewTimer(name, r, offset, period)
	if err != nil {
		return nil, err
	}
	if err := r.registerAction(t); err != nil {
		return nil, err
	}
	return t, nil
}

// AddLogicalAction constructs and registers a logical action of type T
// on this reactor.
func AddLogicalAction[T any](r *Reactor, name string, minDelay time.Duration) (*LogicalAction[T], error) {
	a, err := NewLogicalAction[T](name, r, minDelay)
	if err != nil {
		return nil, err
	}
	if err := r.registerAction(a); err != nil {
		return nil, err
	}
	return a, nil
}

// AddPhysicalAction constructs and registers a physical action of type T
// on this reactor.
func AddPhysicalAction[T any](r *Reactor, name string, minDelay time.Duration) (*PhysicalAction[T], error) {
	a, err := NewPhysicalAction[T](name, r, minDelay)
	if err != nil {
		return nil, err
	}
	if err := r.registerAction(a); err != nil {
		return nil, err
	}
	return a, nil
}

// AddReaction constructs and registers a reaction on this reactor.
func AddReaction(r *Reactor, name string, priority int, body ReactionBody) (*Reaction, error) {
	rx, err := NewReaction(name, r, priority, body)
	if err != nil {
		return nil, err
	}
	if err := r.registerReaction(rx); err != nil {
		return nil, err
	}
	return rx, nil
}

// walk visits r and every reactor nested within it, depth-first.
func (r *Reactor) walk(visit func(*Reactor)) {
	visit(r)
	for _, c := range r.children {
		c.walk(visit)
	}
}

// clearAll clears every port and action's transient presence, run once per instant after dispatch completes.
func (r *Reactor) clearAll() {
	for _, p := range r.ports {
		p.clear()
	}
	for _, a := range r.actions {
		a.clearPresence()
	}
}
