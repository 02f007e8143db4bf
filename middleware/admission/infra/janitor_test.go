package infra

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type countingSweeper struct{ n atomic.Int32 }

func (c *countingSweeper) Cleanup() { c.n.Add(1) }

func TestStartJanitor_SweepsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sw := &countingSweeper{}

	StartJanitor(ctx, 2*time.Millisecond, sw)

	deadline := time.Now().Add(time.Second)
	for sw.n.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()

	if sw.n.Load() < 2 {
		t.Fatalf("expected at least 2 sweeps, got %d", sw.n.Load())
	}
}

func TestStartJanitor_DisabledWithZeroInterval(t *testing.T) {
	sw := &countingSweeper{}
	StartJanitor(context.Background(), 0, sw)
	time.Sleep(5 * time.Millisecond)
	if sw.n.Load() != 0 {
		t.Fatalf("expected no sweeps, got %d", sw.n.Load())
	}
}
