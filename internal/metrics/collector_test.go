package metrics

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

var collectorNamespaceSeq uint64

func nextTestNamespace() string {
	seq := atomic.AddUint64(&collectorNamespaceSeq, 1)
	return fmt.Sprintf("test_%d", seq)
}

func TestNewCollector_RegistersInstruments(t *testing.T) {
	c := NewCollector(nextTestNamespace())
	assert.NotNil(t, c.requestsTotal)
	assert.NotNil(t, c.routingDuration)
	assert.NotNil(t, c.dedupHits)
}

func TestCollector_RecordRequestIncrementsCounter(t *testing.T) {
	c := NewCollector(nextTestNamespace())
	c.RecordRequest("/v1/messages", "simple", "claude-haiku")
	assert.Equal(t, float64(1), testutil.ToFloat64(c.requestsTotal.WithLabelValues("/v1/messages", "simple", "claude-haiku")))
}

func TestCollector_ObserveRoutingDuration(t *testing.T) {
	c := NewCollector(nextTestNamespace())
	c.ObserveRoutingDuration("complex", 15*time.Millisecond)
	assert.Equal(t, uint64(1), testutil.CollectAndCount(c.routingDuration))
}

func TestCollector_RecordDualKeyFailover(t *testing.T) {
	c := NewCollector(nextTestNamespace())
	c.RecordDualKeyFailover()
	assert.Equal(t, float64(1), testutil.ToFloat64(c.dualKeyFailovers.WithLabelValues()))
}
