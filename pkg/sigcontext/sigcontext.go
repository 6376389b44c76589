package sigcontext

import (
	"context"
	"os"
	"os/signal"
	"sync"
)

// WithSignalCancel derives a context that is cancelled the first time one of
// sigs is delivered to the process. The returned cancel releases the signal
// handler and must be called; after it runs, a repeated signal falls back to
// the Go runtime's default handling (a second ^C terminates the agent even if
// a switch command is still running).
func WithSignalCancel(ctx context.Context, sigs ...os.Signal) (context.Context, context.CancelFunc) {
	sigctx, ctxcancel := context.WithCancel(ctx)

	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, sigs...)

	var once sync.Once
	release := func() {
		once.Do(func() {
			signal.Stop(sigchan)
		})
	}

	go func() {
		defer release()
		select {
		case <-sigctx.Done():
		case <-sigchan:
			ctxcancel()
		}
	}()

	return sigctx, func() {
		ctxcancel()
		release()
	}
}
