package reactor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Environment is the root of a reactor program: it owns the top-level
// reactors, drives the phase state machine, builds the reaction
// dependency graph, and runs the scheduler. All construction and
// assembly must go through an Environment; there is no way to run a
// reactor tree without one.
type Environment struct {
	mu sync.Mutex

	phase Phase
	name  string

	logger Logger
	clock  PhysicalClock

	startTime time.Time

	topLevel []*Reactor

	scheduler *scheduler

	reactionsByIndex []*Reaction
	depGraph         *depGraph
	maxReactionIndex int

	observers []LifecycleObserver

	dotPath         string
	shutdownTimeout time.Duration
}

// Option configures an Environment at construction time.
type Option func(*Environment)

// WithLogger overrides the default logger.
func WithLogger(l Logger) Option {
	return func(e *Environment) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithPhysicalClock overrides the default system clock. Tests use this
// to make physical-time-dependent behavior deterministic.
func WithPhysicalClock(c PhysicalClock) Option {
	return func(e *Environment) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithDependencyGraphExport sets a file path; Assemble writes a DOT
// rendering of the reaction dependency graph to this path as a side
// effect, whether or not a cycle is found.
func WithDependencyGraphExport(path string) Option {
	return func(e *Environment) { e.dotPath = path }
}

// WithLifecycleObserver registers an observer notified of every phase
// transition.
func WithLifecycleObserver(o LifecycleObserver) Option {
	return func(e *Environment) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}

// WithConfig applies the operational tunables of an EnvironmentConfig
// (normally produced by LoadEnvironmentConfig): the dependency graph
// export path, the default shutdown timeout used by ShutdownContext,
// and the logger's minimum level. It never touches anything governed
// by the phase machine or reactor topology. Apply WithLogger after
// WithConfig to override the level-derived logger with a specific one.
func WithConfig(cfg EnvironmentConfig) Option {
	return func(e *Environment) {
		if cfg.Name != "" {
			e.name = cfg.Name
		}
		if cfg.DependencyGraphPath != "" {
			e.dotPath = cfg.DependencyGraphPath
		}
		if cfg.ShutdownTimeout > 0 {
			e.shutdownTimeout = cfg.ShutdownTimeout
		}
		if cfg.LogLevel != "" {
			level := parseLogLevel(cfg.LogLevel)
			e.logger = NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		}
	}
}

func parseLogLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// NewEnvironment constructs an environment in PhaseConstruction.
func NewEnvironment(name string, opts ...Option) *Environment {
	e := &Environment{
		phase:            PhaseConstruction,
		name:             name,
		logger:           NewDefaultLogger(),
		clock:            SystemClock,
		maxReactionIndex: -1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the environment's name, used as the root of every FQN.
func (e *Environment) Name() string { return e.name }

// Phase returns the environment's current lifecycle phase.
func (e *Environment) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// Logger returns the environment's configured logger.
func (e *Environment) Logger() Logger { return e.logger }

func (e *Environment) addTopLevelReactor(r *Reactor) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, existing := range e.topLevel {
		if existing.Name() == r.Name() {
			return fmt.Errorf("%w: %s", ErrNameNotUnique, r.Name())
		}
	}
	e.topLevel = append(e.topLevel, r)
	return nil
}

func (e *Environment) setPhase(p Phase) {
	e.mu.Lock()
	prev := e.phase
	e.phase = p
	e.mu.Unlock()
	e.logger.Info("phase transition", "from", prev.String(), "to", p.String())
	e.notifyObservers(prev, p)
}

func (e *Environment) notifyObservers(from, to Phase) {
	for _, o := range e.observers {
		if err := o.OnPhaseTransition(from, to); err != nil {
			e.logger.Warn("lifecycle observer failed", "error", err.Error())
		}
	}
}

// Assemble ends the Construction phase and transitions to Assembly,
// then invokes assemblyHook (if non-nil) so caller code can bind ports
// and declare triggers/dependencies/antidependencies before the
// environment builds the
// reaction dependency graph across the entire reactor tree, assigns
// each reaction its execution index, and transitions to Startup.
//
// Assemble fails, and the environment is left in an unspecified state
// per this runtime's error handling contract, if assemblyHook returns
// an error, if any reaction's priority collides with a sibling's, or
// if the dependency graph contains a cycle.
//
// After Assemble returns successfully, no element may be constructed
// and no port may be bound. Trigger, dependency, antidependency and
// schedulable-action declarations are not checked against the phase;
// one made after Assemble is not reflected in the dependency graph or
// the execution index.
func (e *Environment) Assemble(assemblyHook func() error) error {
	if err := requirePhase(e.phase, PhaseConstruction, "Assemble"); err != nil {
		return err
	}
	e.setPhase(PhaseAssembly)

	if assemblyHook != nil {
		if err := assemblyHook(); err != nil {
			return err
		}
	}

	graph, err := buildDependencyGraph(e)
	if err != nil {
		return err
	}
	e.depGraph = graph
	if err := calculateIndexes(e, graph); err != nil {
		path := e.dotPath
		if path == "" {
			path = defaultDependencyGraphPath
		}
		if werr := writeDOTFile(path, graph); werr != nil {
			e.logger.Warn("failed to export dependency graph", "error", werr.Error())
		}
		return err
	}
	if e.dotPath != "" {
		if err := writeDOTFile(e.dotPath, graph); err != nil {
			e.logger.Warn("failed to export dependency graph", "error", err.Error())
		}
	}

	e.scheduler = newScheduler(e)
	e.setPhase(PhaseStartup)
	return nil
}

// Startup schedules the first event for every timer rooted in the
// environment, sets the environment's start time, and
// launches the scheduler's event loop on a background goroutine. It
// transitions the environment to PhaseExecution and returns promptly;
// callers observe completion via SyncShutdown or AsyncShutdown.
func (e *Environment) Startup() error {
	if err := requirePhase(e.phase, PhaseStartup, "Startup"); err != nil {
		return err
	}
	e.startTime = e.clock.Now()
	e.setPhase(PhaseExecution)

	for _, r := range e.topLevel {
		r.walk(func(rx *Reactor) {
			for _, a := range rx.Actions() {
				if t, ok := a.(*Timer); ok {
					e.scheduler.scheduleTimerFirst(t)
				}
			}
		})
	}

	e.scheduler.start()
	return nil
}

// Lock must be held by any goroutine outside the scheduler's own
// dispatch loop before scheduling a physical action or shutdown. It
// serializes such external callers with each other and with
// AsyncShutdown; the scheduler's own loop does not take it, and the
// event queue is guarded separately by the scheduler's internal lock.
func (e *Environment) Lock() { e.scheduler.extLock.Lock() }

// Unlock releases the lock acquired by Lock.
func (e *Environment) Unlock() { e.scheduler.extLock.Unlock() }

// SchedulePhysical schedules a physical action tagged against the
// current physical time plus delay. The caller must hold the
// environment's lock (see Lock/Unlock) for the duration of this call.
func SchedulePhysical[T any](e *Environment, a *PhysicalAction[T], delay time.Duration, value T) error {
	if delay < a.MinDelay() {
		delay = a.MinDelay()
	}
	now := e.clock.Now()
	tag := Tag{Time: now}.Delay(delay)
	if cur := e.scheduler.CurrentTag(); tag.Before(cur) {
		tag = cur.Delay(0)
	}
	e.scheduler.enqueue(tag, func() { a.setValue(value) }, a)
	return nil
}

// CurrentTag returns the tag of the instant currently being processed,
// or the most recently processed instant if called from outside a
// reaction.
func (e *Environment) CurrentTag() Tag {
	return e.scheduler.CurrentTag()
}

// StartTime returns the physical time at which Startup was called.
func (e *Environment) StartTime() time.Time { return e.startTime }

// ShutdownContext derives a context from parent bounded by the
// shutdown timeout configured via WithConfig, or 5 seconds if none was
// configured. It is a convenience for callers driving SyncShutdown from
// a loaded EnvironmentConfig; SyncShutdown itself accepts any context.
func (e *Environment) ShutdownContext(parent context.Context) (context.Context, context.CancelFunc) {
	timeout := e.shutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return context.WithTimeout(parent, timeout)
}

// SyncShutdown schedules the shutdown instant and blocks until the
// scheduler has drained it, or until ctx is done. It transitions the
// environment through PhaseShutdown into the terminal
// PhaseDeconstruction.
func (e *Environment) SyncShutdown(ctx context.Context) error {
	if err := requirePhase(e.phase, PhaseExecution, "SyncShutdown"); err != nil {
		return err
	}
	e.setPhase(PhaseShutdown)

	done := e.scheduler.scheduleShutdown(e.topLevel)

	select {
	case <-done:
	case <-ctx.Done():
		e.scheduler.stop()
		e.setPhase(PhaseDeconstruction)
		return fmt.Errorf("%w: %v", ErrShutdownTimedOut, ctx.Err())
	}

	e.scheduler.stop()
	e.setPhase(PhaseDeconstruction)
	return nil
}

// AsyncShutdown is the cooperative cancellation path callable from any
// goroutine while the scheduler is running. It blocks until the
// scheduler lock is acquired, transitions the phase to Shutdown and
// enqueues the shutdown instant while still holding that lock, then
// releases it. The returned channel closes once the scheduler has
// drained the shutdown instant and the environment has reached
// PhaseDeconstruction; no reaction starts after Shutdown is entered,
// though a reaction already executing runs to completion.
func (e *Environment) AsyncShutdown() (done <-chan struct{}, err error) {
	e.Lock()
	defer e.Unlock()

	if err := requirePhase(e.phase, PhaseExecution, "AsyncShutdown"); err != nil {
		return nil, err
	}
	e.setPhase(PhaseShutdown)

	schedDone := e.scheduler.scheduleShutdown(e.topLevel)
	out := make(chan struct{})
	go func() {
		<-schedDone
		e.scheduler.stop()
		e.setPhase(PhaseDeconstruction)
		close(out)
	}()
	return out, nil
}

// TopLevelReactors returns the environment's directly registered
// top-level reactors.
func (e *Environment) TopLevelReactors() []*Reactor {
	out := make([]*Reactor, len(e.topLevel))
	copy(out, e.topLevel)
	return out
}

func (e *Environment) FQN() string { return e.name }

// MaxReactionIndex returns the highest execution index assigned to any
// reaction during Assemble (one less than the number of levels in the
// dependency graph). It is -1 before Assemble has completed.
func (e *Environment) MaxReactionIndex() int { return e.maxReactionIndex }

// ExportDependencyGraph writes the assembled reaction dependency graph
// to path in DOT format. It is valid to call any time after Assemble
// has completed.
func (e *Environment) ExportDependencyGraph(path string) error {
	if e.depGraph == nil {
		return fmt.Errorf("%w: ExportDependencyGraph requires Assemble to have run", ErrPhaseViolation)
	}
	return writeDOTFile(path, e.depGraph)
}
