package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/heartfuse/pkg/metrics"
)

// metricsUpdater periodically publishes the store size until stopped.
type metricsUpdater struct {
	wg       sync.WaitGroup
	stopChan chan struct{}
	once     sync.Once
}

func (u *metricsUpdater) start(ctx context.Context, interval time.Duration, count func(context.Context) int) {
	u.stopChan = make(chan struct{})
	u.wg.Add(1)
	go func() {
		defer u.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-u.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateStoreRecords(count(ctx))
			}
		}
	}()
}

func (u *metricsUpdater) stop() {
	u.once.Do(func() {
		if u.stopChan != nil {
			close(u.stopChan)
		}
	})
	u.wg.Wait()
}

func observe(op string, start time.Time) {
	metrics.RecordStoreLatency(op, float64(time.Since(start).Microseconds())/1000)
}
