package worker

import (
	"context"
	"time"

	"smartorder/internal/util"

	"go.uber.org/zap"
)

// StaleOrderSweeper is the slice of the order service the sweep worker drives
type StaleOrderSweeper interface {
	SweepStale(ctx context.Context) (int, error)
}

// Sweeper periodically promotes stale READY orders to COMPLETED. The ticker
// only drives timing; all state decisions happen in the order service against
// the store, so a tick racing an explicit transition cannot double-apply.
type Sweeper struct {
	orders   StaleOrderSweeper
	interval time.Duration
	logger   *zap.Logger
}

// NewSweeper creates a new sweep worker
func NewSweeper(orders StaleOrderSweeper, interval time.Duration) *Sweeper {
	return &Sweeper{
		orders:   orders,
		interval: interval,
		logger:   util.GetLogger(),
	}
}

// Start runs the sweep loop until the context is cancelled
func (w *Sweeper) Start(ctx context.Context) {
	w.logger.Info("Starting order sweeper", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Order sweeper stopped")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *Sweeper) runOnce(ctx context.Context) {
	promoted, err := w.orders.SweepStale(ctx)
	if err != nil {
		w.logger.Error("Sweep pass failed", zap.Error(err))
		return
	}
	if promoted > 0 {
		w.logger.Info("Sweep pass completed", zap.Int("promoted", promoted))
	}
}
