package cli

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// SignalHandler cancels the run context on SIGINT/SIGTERM. There is
// no mid-job cancellation; running builds and container waits finish
// and record their outcome, only queued jobs are dropped.
type SignalHandler struct {
	signals    chan os.Signal
	stopCh     chan struct{}
	done       chan struct{}
	stopOnce   sync.Once
	cancel     context.CancelFunc
	onShutdown []func()
	mu         sync.Mutex
}

// NewSignalHandler creates a signal handler with the given context cancel.
func NewSignalHandler(cancel context.CancelFunc) *SignalHandler {
	return &SignalHandler{
		signals: make(chan os.Signal, 1),
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
		cancel:  cancel,
	}
}

// OnShutdown registers a callback to run when a signal arrives.
func (h *SignalHandler) OnShutdown(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onShutdown = append(h.onShutdown, fn)
}

// Start begins listening for signals.
func (h *SignalHandler) Start() {
	h.StartWithNotify(true)
}

// StartWithNotify begins listening, optionally registering with OS
// signal handling. Pass false in unit tests to avoid global signal
// state interactions.
func (h *SignalHandler) StartWithNotify(notify bool) {
	if notify {
		signal.Notify(h.signals, syscall.SIGINT, syscall.SIGTERM)
	}

	go func() {
		defer close(h.done)

		select {
		case <-h.signals:
			if h.cancel != nil {
				h.cancel()
			}

			h.mu.Lock()
			callbacks := make([]func(), len(h.onShutdown))
			copy(callbacks, h.onShutdown)
			h.mu.Unlock()

			for _, fn := range callbacks {
				fn()
			}

		case <-h.stopCh:
		}
	}()
}

// Stop detaches the handler.
func (h *SignalHandler) Stop() {
	h.stopOnce.Do(func() {
		signal.Stop(h.signals)
		close(h.stopCh)
	})
	<-h.done
}

// Trigger injects a signal, for tests.
func (h *SignalHandler) Trigger(sig os.Signal) {
	select {
	case h.signals <- sig:
	default:
	}
}
