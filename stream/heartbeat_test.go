package streaming

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHeartbeat_TicksUntilStopped(t *testing.T) {
	var ticks atomic.Int64
	hb := NewHeartbeat(func(s string) error {
		ticks.Add(1)
		return nil
	})
	hb.interval = 5 * time.Millisecond
	hb.Start()

	time.Sleep(30 * time.Millisecond)
	hb.Stop()

	got := ticks.Load()
	assert.Greater(t, got, int64(0))

	afterStop := ticks.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, afterStop, ticks.Load(), "no ticks after Stop")
}

func TestHeartbeat_StopIsIdempotent(t *testing.T) {
	hb := NewHeartbeat(func(s string) error { return nil })
	hb.interval = time.Millisecond
	hb.Start()
	hb.Stop()
	assert.NotPanics(t, func() { hb.Stop() })
}
