package reactor

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// CronPhysicalAction schedules a physical action according to a cron
// expression, evaluated against physical time. It is the bridge
// between an external time-of-day schedule and the reactor tree: each
// firing enters the scheduler exactly like any other physically
// scheduled event, tagged with the physical time at which cron fired.
type CronPhysicalAction[T any] struct {
	action *PhysicalAction[T]
	env    *Environment
	value  func() T
	cron   *cron.Cron
	entry  cron.EntryID
}

// NewCronPhysicalAction parses spec as a standard five-field cron
// expression and arranges for action to be scheduled, with value(),
// every time it fires. value is called fresh for each firing so the
// scheduled payload can reflect state at fire time.
func NewCronPhysicalAction[T any](env *Environment, action *PhysicalAction[T], spec string, value func() T) (*CronPhysicalAction[T], error) {
	c := cron.New()
	ca := &CronPhysicalAction[T]{action: action, env: env, value: value, cron: c}

	id, err := c.AddFunc(spec, ca.fire)
	if err != nil {
		return nil, fmt.Errorf("parsing cron schedule %q for action %s: %w", spec, action.FQN(), err)
	}
	ca.entry = id
	return ca, nil
}

func (c *CronPhysicalAction[T]) fire() {
	c.env.Lock()
	defer c.env.Unlock()
	if err := SchedulePhysical(c.env, c.action, 0, c.value()); err != nil {
		c.env.Logger().Warn("cron action scheduling failed", "action", c.action.FQN(), "error", err.Error())
	}
}

// Start begins evaluating the cron schedule on a background goroutine,
// the same pattern robfig/cron uses throughout this ecosystem.
func (c *CronPhysicalAction[T]) Start() { c.cron.Start() }

// Stop halts the cron schedule and waits for any in-flight firing to
// complete.
func (c *CronPhysicalAction[T]) Stop() { <-c.cron.Stop().Done() }
