// Package jobs holds the background tasks that run alongside the HTTP server.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/spiget/spiget-api/internal/db/repositories"
	"github.com/spiget/spiget-api/internal/safego"
	"github.com/spiget/spiget-api/internal/telemetry"
)

// PendingRequestsSampler periodically counts queued update requests and
// publishes the count as a gauge. A steadily climbing gauge is the signal
// that the ingestion pipeline has stopped draining the queue.
type PendingRequestsSampler struct {
	repo     *repositories.UpdateRequestRepository
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewPendingRequestsSampler creates the sampler. interval is how often the
// queue is counted.
func NewPendingRequestsSampler(repo *repositories.UpdateRequestRepository, interval time.Duration) *PendingRequestsSampler {
	return &PendingRequestsSampler{repo: repo, interval: interval}
}

// Start launches the sampling loop. The first sample runs immediately.
func (s *PendingRequestsSampler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	safego.Go("pending-requests-sampler", func() {
		defer close(s.done)

		s.sample(ctx)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sample(ctx)
			}
		}
	})
}

// Stop halts the loop and waits for it to exit.
func (s *PendingRequestsSampler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

func (s *PendingRequestsSampler) sample(ctx context.Context) {
	count, err := s.repo.CountPending(ctx)
	if err != nil {
		slog.Warn("failed to sample pending update requests", "error", err)
		return
	}
	telemetry.PendingUpdateRequests.Set(float64(count))
}
