// Package conproc provides a cooperative concurrent-process runtime.
//
// Many lightweight logical processes, each with an isolated execution
// context, multiplex over dynamically-sized pools of worker goroutines and
// communicate through bounded or unbounded message channels. The runtime is
// built from pluggable layers:
//
//   - pool    – dynamic worker pools drawing from a lock-free ready queue
//   - process – process templates and their instances
//   - channel – shared input channels with waiter wakeup
//   - marshal – environment encoding between isolated contexts
//
// conproc is designed to be embedded in host applications. End-users
// typically interact through the Runtime façade exposed by the root
// package:
//
//	rt, _ := conproc.New()
//	defer rt.Shutdown(ctx)
//	rt.Register("echo", func(ctx context.Context, msg any) error {
//		process.Caps(ctx).Logf("%v", msg)
//		return nil
//	})
//	p, _ := rt.NewProcess(ctx, rt.Handler("echo"))
//	_ = p.Send(ctx, "hello")
//
// For more details see the individual sub-packages.
package conproc
