package reactor

import "fmt"

// PortDirection distinguishes input ports from output ports. Direction
// constrains which bindings are legal and which reactions may read or
// write a port's value.
type PortDirection int

const (
	// Input ports receive values from a binding and are read by
	// reactions of their own reactor.
	Input PortDirection = iota
	// Output ports are written by reactions of their own reactor and
	// bind outward to a sibling's input or a container's output.
	Output
)

func (d PortDirection) String() string {
	if d == Input {
		return "input"
	}
	return "output"
}

// Port is the common surface of every typed port, independent of its
// value type. The dependency graph and binding validation operate
// against this interface so they need not be generic.
type Port interface {
	ReactorElement
	Direction() PortDirection
	boundFrom() Port
	bindFrom(src Port) error
	clear()
	hasValue() bool
}

// BasePort[T] is the concrete, generic port type. A value set during an
// instant is visible to downstream reactions for the remainder of that
// instant and is cleared before the next.
type BasePort[T any] struct {
	elementBase
	direction PortDirection
	value     *T
	source    Port
}

// NewPort constructs a port owned by container, with the given direction.
// AddInput / AddOutput are the normal entry points; this
// is exported for composite construction helpers outside this package.
func NewPort[T any](name string, container *Reactor, direction PortDirection) (*BasePort[T], error) {
	if container == nil {
		return nil, fmt.Errorf("%w: port %q must have a container reactor", ErrElementNil, name)
	}
	base, err := newElementBase(name, container, container.Environment())
	if err != nil {
		return nil, err
	}
	return &BasePort[T]{elementBase: base, direction: direction}, nil
}

// Direction reports whether this is an input or output port.
func (p *BasePort[T]) Direction() PortDirection { return p.direction }

// Get returns the port's current value and whether it is present. A
// port has a value only during the instant in which it, or its
// transitive binding source, was written.
func (p *BasePort[T]) Get() (T, bool) {
	if src, ok := p.source.(*BasePort[T]); ok {
		return src.Get()
	}
	if p.value == nil {
		var zero T
		return zero, false
	}
	return *p.value, true
}

// Set writes the port's value for the remainder of the current instant.
// Reactions call Set only on output ports they declare as an
// antidependency, or on input ports of reactors they directly contain
// (the "set on behalf of a child" case). Set itself does not check who
// calls it; AddAntidependency only validates what a reaction declares.
func (p *BasePort[T]) Set(v T) {
	vv := v
	p.value = &vv
}

func (p *BasePort[T]) hasValue() bool {
	if p.source != nil {
		return p.source.hasValue()
	}
	return p.value != nil
}

func (p *BasePort[T]) clear() { p.value = nil }

func (p *BasePort[T]) boundFrom() Port {
	if p.source == nil {
		return nil
	}
	return p.source
}

// bindFrom records src as this port's binding source after the caller
// has already validated direction/containment legality. A port may
// receive at most one inward binding.
func (p *BasePort[T]) bindFrom(src Port) error {
	if p.source != nil {
		return fmt.Errorf("%w: port %s already has a binding source", ErrBindingViolation, p.FQN())
	}
	p.source = src
	return nil
}

// resolveSource follows the chain of bindings to the port that actually
// holds a value, i.e. the port with no further upstream binding.
func resolveSource(p Port) Port {
	cur := p
	for {
		up := cur.boundFrom()
		if up == nil {
			return cur
		}
		cur = up
	}
}

// BindPorts declares that values written to src are visible, in the same
// instant, through dst. Legal bindings mirror the containment tree's
// three admissible cases:
//
//	(a) an output of a contained reactor  -> an input of a sibling contained reactor
//	(b) an output of a contained reactor  -> an output of the container itself
//	(c) an input of the container itself  -> an input of a contained reactor
//
// Binding is only legal during Assembly, and only one inward binding is
// allowed per destination port.
func (e *Environment) BindPorts(dst, src Port) error {
	if err := requirePhase(e.phase, PhaseAssembly, "BindPorts"); err != nil {
		return err
	}
	if dst == nil || src == nil {
		return fmt.Errorf("%w: BindPorts requires non-nil ports", ErrElementNil)
	}
	if err := validateBinding(dst, src); err != nil {
		return err
	}
	if err := dst.bindFrom(src); err != nil {
		return err
	}
	e.logger.Debug("port bound", "dst", dst.FQN(), "src", src.FQN())
	return nil
}

func validateBinding(dst, src Port) error {
	dstC, srcC := dst.Container(), src.Container()
	if dstC == nil || srcC == nil {
		return fmt.Errorf("%w: ports must belong to a reactor", ErrStructuralViolation)
	}

	switch {
	// (a) sibling output -> sibling input: same parent, src is output, dst is input.
	case dstC.Container() == srcC.Container() && dstC != srcC:
		if src.Direction() != Output || dst.Direction() != Input {
			return fmt.Errorf("%w: sibling binding must go from an output to an input (%s -> %s)",
				ErrBindingViolation, src.FQN(), dst.FQN())
		}
		return nil

	// (b) child output -> parent output: src's container is a child of dst's container.
	case srcC.Container() == dstC:
		if src.Direction() != Output || dst.Direction() != Output {
			return fmt.Errorf("%w: upward binding must go from a contained output to the container's output (%s -> %s)",
				ErrBindingViolation, src.FQN(), dst.FQN())
		}
		return nil

	// (c) parent input -> child input: dst's container is a child of src's container.
	case dstC.Container() == srcC:
		if src.Direction() != Input || dst.Direction() != Input {
			return fmt.Errorf("%w: downward binding must go from the container's input to a contained input (%s -> %s)",
				ErrBindingViolation, src.FQN(), dst.FQN())
		}
		return nil

	default:
		return fmt.Errorf("%w: %s and %s are not in a legal binding relationship",
			ErrBindingViolation, src.FQN(), dst.FQN())
	}
}
