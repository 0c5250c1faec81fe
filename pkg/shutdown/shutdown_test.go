package shutdown

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWithSignals(t *testing.T) {
	t.Run("signal cancels context", func(t *testing.T) {
		ctx, cancel := WithSignals(context.Background(), syscall.SIGUSR1)
		defer cancel()

		require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR1))

		select {
		case <-ctx.Done():
		case <-time.After(2 * time.Second):
			t.Fatal("context not cancelled by signal")
		}
	})

	t.Run("parent cancel propagates", func(t *testing.T) {
		parent, parentCancel := context.WithCancel(context.Background())
		ctx, cancel := WithSignals(parent)
		defer cancel()

		parentCancel()

		select {
		case <-ctx.Done():
		case <-time.After(time.Second):
			t.Fatal("context not cancelled by parent")
		}
	})

	t.Run("cancel after signal stops the watcher", func(t *testing.T) {
		ctx, cancel, stopped := withSignals(context.Background(), syscall.SIGUSR2)

		require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR2))
		select {
		case <-ctx.Done():
		case <-time.After(2 * time.Second):
			t.Fatal("context not cancelled by signal")
		}

		cancel()
		select {
		case <-stopped:
		case <-time.After(time.Second):
			t.Fatal("watcher still running after cancel")
		}
	})
}
