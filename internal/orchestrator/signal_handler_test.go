package orchestrator

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHandleSignalsCancelsOnSignal(t *testing.T) {
	sh := &SignalHandler{sigChan: make(chan os.Signal, 1)}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sh.HandleSignals(ctx, cancel)

	sh.sigChan <- syscall.SIGTERM

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context was not cancelled after SIGTERM")
	}
}

func TestHandleSignalsStopsWithContext(t *testing.T) {
	sh := &SignalHandler{sigChan: make(chan os.Signal, 1)}

	parent, stopParent := context.WithCancel(context.Background())
	child, cancelChild := context.WithCancel(context.Background())
	defer cancelChild()

	sh.HandleSignals(parent, cancelChild)
	stopParent()

	// Give the watcher time to exit, then make sure a late signal is ignored
	time.Sleep(20 * time.Millisecond)
	sh.sigChan <- syscall.SIGINT
	time.Sleep(20 * time.Millisecond)

	assert.NoError(t, child.Err())
}
