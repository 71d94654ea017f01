package share

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const purgeBatchSize = 100

// Janitor periodically cascades deletion to expired shares.
type Janitor struct {
	lifecycle *Lifecycle
	interval  time.Duration
	log       zerolog.Logger
	stop      chan struct{}
	done      chan struct{}
	started   atomic.Bool
	once      sync.Once
}

func NewJanitor(lifecycle *Lifecycle, interval time.Duration, log zerolog.Logger) *Janitor {
	return &Janitor{
		lifecycle: lifecycle,
		interval:  interval,
		log:       log,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start runs a sweep immediately and then every interval until Stop.
func (j *Janitor) Start() {
	if !j.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(j.done)
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()
		for {
			j.Sweep(context.Background())
			select {
			case <-ticker.C:
			case <-j.stop:
				return
			}
		}
	}()
}

func (j *Janitor) Stop() {
	j.once.Do(func() {
		close(j.stop)
		if j.started.Load() {
			<-j.done
		}
	})
}

// Sweep purges expired shares in batches until none are left.
func (j *Janitor) Sweep(ctx context.Context) int {
	total := 0
	for {
		n, err := j.lifecycle.PurgeExpired(ctx, purgeBatchSize)
		total += n
		if err != nil {
			j.log.Error().Err(err).Msg("expired share sweep failed")
			return total
		}
		if n < purgeBatchSize {
			break
		}
	}
	if total > 0 {
		j.log.Info().Int("purged", total).Msg("expired shares purged")
	}
	return total
}
