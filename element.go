package reactor

// ReactorElement is the common identity surface shared by every object
// that lives inside an Environment: reactors, ports, actions, and
// reactions. Every element exists in exactly one environment for its
// entire lifetime.
type ReactorElement interface {
	// Name returns this element's locally-unique name.
	Name() string

	// FQN returns the dot-joined path from the root reactor to this
	// element.
	FQN() string

	// Container returns the reactor that owns this element, or nil if
	// this element is itself a top-level reactor.
	Container() *Reactor

	// Environment returns the environment this element belongs to.
	Environment() *Environment
}

// elementBase is embedded by every concrete element type to provide the
// shared Name/FQN/Container/Environment bookkeeping. Name uniqueness is
// enforced by the container's Add* functions at registration time, since
// elementBase alone cannot see its siblings. It is checked per kind only:
// a child reactor, a port, an action and a reaction of the same reactor
// may share a name.
type elementBase struct {
	name        string
	container   *Reactor
	environment *Environment
}

func newElementBase(name string, container *Reactor, env *Environment) (elementBase, error) {
	if name == "" {
		return elementBase{}, ErrNameEmpty
	}
	if env == nil {
		return elementBase{}, ErrElementNil
	}
	if err := requirePhase(env.phase, PhaseConstruction, "constructing "+name); err != nil {
		return elementBase{}, err
	}
	return elementBase{name: name, container: container, environment: env}, nil
}

func (e *elementBase) Name() string { return e.name }

func (e *elementBase) Container() *Reactor { return e.container }

func (e *elementBase) Environment() *Environment { return e.environment }

func (e *elementBase) FQN() string {
	if e.container == nil {
		return e.name
	}
	return e.container.FQN() + "." + e.name
}
