// Package shutdown coordinates process termination for long-running
// commands such as the mock backend.
//
// Usage:
//
//	ctx, stop := shutdown.WithSignals(context.Background())
//	defer stop()
//	h := shutdown.NewHandler(5*time.Second, log)
//	h.OnShutdown("metrics", flush)
//	err := h.Wait(ctx) // runs hooks once ctx is done
package shutdown
