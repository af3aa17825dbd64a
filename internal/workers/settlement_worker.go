// Package workers contains background loops that drive time-based
// transitions which no API call triggers.
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/brpay/charge-service/internal/domain/ports"
	settlementsvc "github.com/brpay/charge-service/internal/services/settlement"
	"github.com/brpay/charge-service/pkg/resilience"
)

// SettlementWorker polls for due settlements and moves them into
// PROCESSING. The actual payout happens downstream; subscribers of the
// settlement.processing event execute the bank transfer and report back
// through the settlement service.
type SettlementWorker struct {
	settlements *settlementsvc.Service
	logger      ports.Logger
	timeouts    *resilience.TimeoutConfig
	interval    time.Duration
	batchSize   int

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewSettlementWorker creates a worker polling at the given interval.
// batchSize caps how many settlements are picked up per tick; zero means
// no cap.
func NewSettlementWorker(settlements *settlementsvc.Service, logger ports.Logger, interval time.Duration, batchSize int) *SettlementWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SettlementWorker{
		settlements: settlements,
		logger:      logger,
		timeouts:    resilience.DefaultTimeoutConfig(),
		interval:    interval,
		batchSize:   batchSize,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Start runs the polling loop until Stop is called or ctx is canceled
func (w *SettlementWorker) Start(ctx context.Context) {
	go w.run(ctx)
}

// Stop signals the loop to exit and waits for the current tick to finish
func (w *SettlementWorker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
	<-w.doneCh
}

func (w *SettlementWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	w.logger.Info("settlement worker started",
		ports.String("interval", w.interval.String()))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("settlement worker stopping", ports.Err(ctx.Err()))
			return
		case <-w.stopCh:
			w.logger.Info("settlement worker stopped")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

// tick picks up due settlements and transitions each into PROCESSING.
// Failures on one settlement do not block the rest of the batch.
func (w *SettlementWorker) tick(ctx context.Context) {
	tickCtx, cancel := w.timeouts.WorkerContext(ctx)
	defer cancel()

	due, err := w.settlements.ListDue(tickCtx)
	if err != nil {
		w.logger.Error("failed to list due settlements", ports.Err(err))
		return
	}
	if len(due) == 0 {
		return
	}
	if w.batchSize > 0 && len(due) > w.batchSize {
		due = due[:w.batchSize]
	}

	w.logger.Info("picking up due settlements", ports.Int("count", len(due)))

	for _, settlement := range due {
		if _, err := w.settlements.StartProcessing(tickCtx, settlement.ID); err != nil {
			w.logger.Error("failed to start settlement processing",
				ports.String("settlement_id", settlement.ID),
				ports.Err(err))
		}
	}
}
