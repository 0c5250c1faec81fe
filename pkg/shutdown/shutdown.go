package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// WithSignals returns a context cancelled on SIGINT/SIGTERM (or the extra
// signals passed in). A second signal exits the process immediately.
// Calling the returned cancel func stops listening for signals.
func WithSignals(parent context.Context, extra ...os.Signal) (context.Context, context.CancelFunc) {
	ctx, cancel, _ := withSignals(parent, extra...)
	return ctx, cancel
}

// withSignals also returns a channel closed once the signal watcher has exited.
func withSignals(parent context.Context, extra ...os.Signal) (context.Context, context.CancelFunc, <-chan struct{}) {
	ctx, cancelCtx := context.WithCancel(parent)

	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() { close(done) })
		cancelCtx()
	}

	sigs := append([]os.Signal{syscall.SIGINT, syscall.SIGTERM}, extra...)
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, sigs...)

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		defer signal.Stop(ch)

		select {
		case <-ctx.Done():
			return
		case <-ch:
			cancelCtx()
		}

		select {
		case <-ch:
			os.Exit(1)
		case <-done:
		case <-parent.Done():
		}
	}()

	return ctx, cancel, stopped
}
