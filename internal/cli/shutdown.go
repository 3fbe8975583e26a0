package cli

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"fetchname/internal/utils"
)

// shutdownCoordinator cancels the running command once, no matter how many
// signals arrive.
type shutdownCoordinator struct {
	once   sync.Once
	cancel context.CancelFunc
}

func (s *shutdownCoordinator) execute(reason string) {
	s.once.Do(func() {
		utils.Debug("Cancelling (%s)", reason)
		s.cancel()
	})
}

// withShutdown derives a context that is cancelled on SIGINT or SIGTERM.
// The returned stop function releases the signal handler.
func withShutdown(parent context.Context) (context.Context, func()) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	s := &shutdownCoordinator{cancel: cancel}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		select {
		case sig := <-sigChan:
			s.execute("signal: " + sig.String())
		case <-done:
		}
	}()

	stop := func() {
		signal.Stop(sigChan)
		close(done)
		cancel()
	}
	return ctx, stop
}
