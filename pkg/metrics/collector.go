package metrics

import (
	"time"

	"github.com/cuemby/docpipeline/pkg/types"
	"github.com/cuemby/docpipeline/pkg/workstore"
)

// Collector periodically samples the work store and publishes backlog
// gauges so operators can see queue depth without scraping every phase's
// result directory by hand.
type Collector struct {
	store  *workstore.Store
	stopCh chan struct{}
}

// NewCollector creates a new metrics collector over store.
func NewCollector(store *workstore.Store) *Collector {
	return &Collector{
		store:  store,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics on a 15s interval.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	c.collectBacklog()
}

func (c *Collector) collectBacklog() {
	for _, phase := range []types.Phase{types.Phase1, types.Phase2, types.Phase3, types.Phase4} {
		count, err := c.store.CountArtifacts(phase)
		if err != nil {
			continue
		}
		PhaseBacklog.WithLabelValues(phase.String()).Set(float64(count))
	}
}
