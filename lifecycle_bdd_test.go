package reactor

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cucumber/godog"
)

type lifecycleBDDContext struct {
	env     *Environment
	lastErr error
}

func (c *lifecycleBDDContext) reset() {
	c.env = nil
	c.lastErr = nil
}

func (c *lifecycleBDDContext) aNewEnvironment() error {
	c.env = NewEnvironment("bdd")
	return nil
}

func (c *lifecycleBDDContext) aReactorWithATimerAndATriggeredReaction(name string) error {
	r, err := NewReactor(name, c.env, nil)
	if err != nil {
		return err
	}
	timer, err := AddTimer(r, "t", 0, 0)
	if err != nil {
		return err
	}
	rx, err := AddReaction(r, "rx", 1, func(ctx *ReactionContext) error { return nil })
	if err != nil {
		return err
	}
	return rx.AddTrigger(timer)
}

func (c *lifecycleBDDContext) theEnvironmentIsAssembled() error {
	c.lastErr = c.env.Assemble(nil)
	return nil
}

func (c *lifecycleBDDContext) theEnvironmentIsStartedUp() error {
	c.lastErr = c.env.Startup()
	return nil
}

func (c *lifecycleBDDContext) theEnvironmentIsSynchronouslyShutDown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c.lastErr = c.env.SyncShutdown(ctx)
	return nil
}

func (c *lifecycleBDDContext) aReactorNamedIsConstructed(name string) error {
	_, err := NewReactor(name, c.env, nil)
	c.lastErr = err
	return nil
}

func (c *lifecycleBDDContext) theEnvironmentPhaseShouldBe(want string) error {
	if got := c.env.Phase().String(); got != want {
		return fmt.Errorf("expected phase %q, got %q", want, got)
	}
	return nil
}

func (c *lifecycleBDDContext) theLastErrorShouldBeAPhaseViolation() error {
	if c.lastErr == nil {
		return fmt.Errorf("expected a phase violation error, got none")
	}
	if !errors.Is(c.lastErr, ErrPhaseViolation) {
		return fmt.Errorf("expected a phase violation error, got %v", c.lastErr)
	}
	return nil
}

func initializePhaseLifecycleScenario(sc *godog.ScenarioContext) {
	bdd := &lifecycleBDDContext{}

	sc.Before(func(ctx context.Context, s *godog.Scenario) (context.Context, error) {
		bdd.reset()
		return ctx, nil
	})

	sc.Step(`^a new environment$`, bdd.aNewEnvironment)
	sc.Step(`^a reactor named "([^"]*)" with a timer and a triggered reaction$`, bdd.aReactorWithATimerAndATriggeredReaction)
	sc.Step(`^the environment is assembled$`, bdd.theEnvironmentIsAssembled)
	sc.Step(`^the environment is started up$`, bdd.theEnvironmentIsStartedUp)
	sc.Step(`^the environment is synchronously shut down$`, bdd.theEnvironmentIsSynchronouslyShutDown)
	sc.Step(`^a reactor named "([^"]*)" is constructed$`, bdd.aReactorNamedIsConstructed)
	sc.Step(`^the environment phase should be "([^"]*)"$`, bdd.theEnvironmentPhaseShouldBe)
	sc.Step(`^the last error should be a phase violation$`, bdd.theLastErrorShouldBeAPhaseViolation)
}

func TestPhaseLifecycleFeature(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializePhaseLifecycleScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/phase_lifecycle.feature"},
			TestingT: t,
			Strict:   true,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
