package streaming

import (
	"sync"
	"time"
)

// HeartbeatInterval is how often an SSE comment heartbeat is emitted
// before the first upstream byte arrives, per spec.
const HeartbeatInterval = 2 * time.Second

// Heartbeat writes an SSE comment line on a fixed interval until Stop is
// called. The response mediator starts one immediately after issuing the
// upstream request and stops it the moment the first real upstream byte
// is written, keeping intermediate proxies from timing out on
// slow-starting reasoning models without ever interleaving with real
// output.
type Heartbeat struct {
	write    func(string) error
	interval time.Duration
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewHeartbeat builds a Heartbeat that calls write(": heartbeat\n\n") on
// every tick.
func NewHeartbeat(write func(string) error) *Heartbeat {
	return &Heartbeat{
		write:    write,
		interval: HeartbeatInterval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the heartbeat loop in its own goroutine.
func (h *Heartbeat) Start() {
	go func() {
		defer close(h.done)
		t := time.NewTicker(h.interval)
		defer t.Stop()
		for {
			select {
			case <-h.stop:
				return
			case <-t.C:
				if err := h.write(": heartbeat\n\n"); err != nil {
					return
				}
			}
		}
	}()
}

// Stop signals the loop to exit and waits for it to do so.
func (h *Heartbeat) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
	<-h.done
}
