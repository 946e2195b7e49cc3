package search

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Rebuilder periodically rebuilds the post index in the background.
// Writers never touch the index synchronously, so index staleness is
// bounded by the configured interval.
type Rebuilder struct {
	index    *Index
	interval time.Duration
	logger   *logrus.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func NewRebuilder(index *Index, interval time.Duration, logger *logrus.Logger) *Rebuilder {
	if logger == nil {
		logger = logrus.New()
	}
	return &Rebuilder{
		index:    index,
		interval: interval,
		logger:   logger,
	}
}

// Start launches the rebuild loop. An interval of zero disables the
// loop entirely; reindexing then only happens via the reindex command.
func (r *Rebuilder) Start(ctx context.Context) {
	if r.interval <= 0 {
		r.logger.Info("periodic index rebuild disabled")
		return
	}

	ctx, r.cancel = context.WithCancel(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		r.logger.Infof("index rebuilder started, interval %s", r.interval)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				count, err := r.index.Rebuild(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					r.logger.Warnf("index rebuild: %v", err)
					continue
				}
				r.logger.Debugf("index rebuilt, %d posts", count)
			}
		}
	}()
}

func (r *Rebuilder) Shutdown() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}
