// Package reactor implements a deterministic discrete-event runtime for
// reactor-oriented programs.
//
// A program is a hierarchy of reactors -- isolated components that own
// state, ports, timers, and reactions -- connected by typed ports.
// Reactions are code fragments triggered by events at well-defined
// logical instants. The runtime guarantees deterministic ordering of
// reaction execution at every instant, independent of physical-time
// jitter, while still advancing physical time for timers and deadlines.
//
// Basic usage:
//
//	env := reactor.NewEnvironment("app", reactor.WithLogger(logger))
//	top, _ := reactor.NewReactor("top", env, nil)
//	timer, _ := reactor.AddTimer(top, "t", 0, time.Second)
//	rx, _ := reactor.AddReaction(top, "tick", 1, func(ctx *reactor.ReactionContext) error {
//		ctx.Logger.Info("tick", "tag", ctx.Tag.String())
//		return nil
//	})
//	rx.AddTrigger(timer)
//
//	if err := env.Assemble(nil); err != nil {
//		log.Fatal(err)
//	}
//	if err := env.Startup(); err != nil {
//		log.Fatal(err)
//	}
//	// ... let the scheduler run ...
//	if err := env.SyncShutdown(context.Background()); err != nil {
//		log.Fatal(err)
//	}
package reactor
