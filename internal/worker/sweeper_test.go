package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingSweeper struct {
	calls atomic.Int32
}

func (c *countingSweeper) SweepStale(context.Context) (int, error) {
	c.calls.Add(1)
	return 0, nil
}

func TestSweeperTicks(t *testing.T) {
	sweeps := &countingSweeper{}
	w := NewSweeper(sweeps, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	time.Sleep(60 * time.Millisecond)
	cancel()
	<-done

	assert.GreaterOrEqual(t, sweeps.calls.Load(), int32(2))
}

func TestSweeperStopsOnCancel(t *testing.T) {
	sweeps := &countingSweeper{}
	w := NewSweeper(sweeps, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after context cancellation")
	}
}
