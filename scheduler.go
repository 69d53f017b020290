package reactor

import (
	"container/heap"
	"sync"
	"time"
)

// event is one pending occurrence: applying it makes element present for
// the instant at tag.
type event struct {
	tag     Tag
	apply   func()
	element ReactorElement
}

// eventHeap is a min-heap of events ordered by tag.
type eventHeap []*event

func (h eventHeap) Len() int            { return len(h) }
func (h eventHeap) Less(i, j int) bool  { return h[i].tag.Before(h[j].tag) }
func (h eventHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *eventHeap) Push(x interface{}) { *h = append(*h, x.(*event)) }
func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// scheduler drives the environment's event loop: a min-heap of pending
// events ordered by Tag, drained one instant at a time. Within an
// instant, every reaction in the environment's global index order runs
// if at least one of its triggers is present, which lets a reaction's
// write to an antidependency port make a higher-index reaction runnable
// within the very same instant.
type scheduler struct {
	env *Environment

	// extLock serializes external callers of SchedulePhysical (see
	// Environment.Lock/Unlock) so a check against CurrentTag and the
	// resulting enqueue happen atomically from the caller's
	// perspective. It is distinct from lock, which protects the heap
	// itself and is only ever held briefly.
	extLock sync.Mutex

	lock sync.Mutex
	cond *sync.Cond
	heap eventHeap

	currentTag Tag
	running    bool

	shutdownRequested bool
	shutdownDone      chan struct{}

	stopCh chan struct{}
	doneCh chan struct{}
}

func newScheduler(e *Environment) *scheduler {
	s := &scheduler{env: e}
	s.cond = sync.NewCond(&s.lock)
	return s
}

// CurrentTag returns the tag of the instant in progress, or most
// recently completed.
func (s *scheduler) CurrentTag() Tag {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.currentTag
}

// scheduleTimerFirst enqueues a timer's first firing, offset from the
// environment's start time.
func (s *scheduler) scheduleTimerFirst(t *Timer) {
	tag := Tag{Time: s.env.startTime.Add(t.Offset)}
	s.enqueue(tag, func() { t.markPresent() }, t)
}

// enqueue adds an event to the heap and wakes the event loop if it may
// now have an earlier deadline to wait on.
func (s *scheduler) enqueue(tag Tag, apply func(), element ReactorElement) {
	s.lock.Lock()
	heap.Push(&s.heap, &event{tag: tag, apply: apply, element: element})
	s.lock.Unlock()
	s.cond.Broadcast()
}

// scheduleShutdown enqueues the shutdown instant, one microstep after
// the current tag, firing every reactor's shutdown action. The returned
// channel closes once that instant has been dispatched.
func (s *scheduler) scheduleShutdown(topLevel []*Reactor) <-chan struct{} {
	s.lock.Lock()
	tag := s.currentTag.Delay(0)
	s.shutdownRequested = true
	s.shutdownDone = make(chan struct{})
	done := s.shutdownDone
	s.lock.Unlock()

	for _, top := range topLevel {
		top.walk(func(r *Reactor) {
			sd := r.Shutdown()
			s.enqueue(tag, func() { sd.markPresent() }, sd)
		})
	}
	return done
}

// start launches the event loop on a background goroutine.
func (s *scheduler) start() {
	s.lock.Lock()
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.lock.Unlock()

	go s.runLoop()
}

// stop signals the event loop to halt and waits for it to exit.
func (s *scheduler) stop() {
	s.lock.Lock()
	if !s.running {
		s.lock.Unlock()
		return
	}
	s.lock.Unlock()

	close(s.stopCh)
	s.cond.Broadcast()
	<-s.doneCh
}

func (s *scheduler) runLoop() {
	defer close(s.doneCh)

	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		tag, events, ok := s.waitNextInstant()
		if !ok {
			return
		}

		s.lock.Lock()
		s.currentTag = tag
		s.lock.Unlock()

		for _, ev := range events {
			ev.apply()
		}

		s.dispatchInstant(tag)
		s.clearAllPresence()

		s.lock.Lock()
		wasShutdown := s.shutdownRequestedFiredAt(tag, events)
		done := s.shutdownDone
		s.lock.Unlock()
		if wasShutdown {
			close(done)
			return
		}
	}
}

// shutdownRequestedFiredAt reports whether this instant was the
// scheduled shutdown instant, by checking whether any applied event
// targeted a ShutdownAction.
func (s *scheduler) shutdownRequestedFiredAt(tag Tag, events []*event) bool {
	if !s.shutdownRequested {
		return false
	}
	for _, ev := range events {
		if _, ok := ev.element.(*ShutdownAction); ok {
			return true
		}
	}
	return false
}

// waitNextInstant blocks until the earliest-tagged event's time has
// arrived in physical time (or immediately, if its tag is not in the
// future), then pops and returns every event sharing that exact tag.
// It returns ok=false if the loop has been asked to stop and the heap
// is empty.
func (s *scheduler) waitNextInstant() (Tag, []*event, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	for {
		select {
		case <-s.stopCh:
			if len(s.heap) == 0 {
				return Tag{}, nil, false
			}
		default:
		}

		if len(s.heap) == 0 {
			select {
			case <-s.stopCh:
				return Tag{}, nil, false
			default:
			}
			s.cond.Wait()
			continue
		}

		next := s.heap[0]
		wait := next.tag.Time.Sub(s.env.clock.Now())
		if wait <= 0 {
			tag := next.tag
			var batch []*event
			for len(s.heap) > 0 && s.heap[0].tag.Equal(tag) {
				batch = append(batch, heap.Pop(&s.heap).(*event))
			}
			return tag, batch, true
		}

		woken := make(chan struct{})
		timer := time.AfterFunc(wait, func() {
			s.lock.Lock()
			close(woken)
			s.cond.Broadcast()
			s.lock.Unlock()
		})
		s.cond.Wait()
		timer.Stop()
		select {
		case <-woken:
		default:
		}
	}
}

// dispatchInstant runs every reaction in global index order whose
// trigger set contains at least one currently present port or action.
func (s *scheduler) dispatchInstant(tag Tag) {
	for _, rx := range s.env.reactionsByIndex {
		runnable := false
		for _, t := range rx.triggers {
			if elementPresent(t) {
				runnable = true
				break
			}
		}
		if !runnable {
			continue
		}
		if err := rx.fire(tag, s.env.logger, s.env.clock, s.env); err != nil {
			s.env.logger.Error("reaction failed", "reaction", rx.FQN(), "error", err.Error())
		}
	}

	s.rescheduleTimers(tag)
}

// rescheduleTimers requeues every periodic timer that fired this
// instant for its next period.
func (s *scheduler) rescheduleTimers(tag Tag) {
	for _, top := range s.env.topLevel {
		top.walk(func(r *Reactor) {
			for _, a := range r.Actions() {
				t, ok := a.(*Timer)
				if !ok || !t.IsPresent() || t.Period <= 0 {
					continue
				}
				next := Tag{Time: tag.Time.Add(t.Period)}
				s.enqueue(next, func() { t.markPresent() }, t)
			}
		})
	}
}

// clearAllPresence clears every port and action's transient presence
// across the whole tree, once an instant's reactions have all run.
func (s *scheduler) clearAllPresence() {
	for _, top := range s.env.topLevel {
		top.walk(func(r *Reactor) { r.clearAll() })
	}
}
