package pipeline

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/alamesa/catalog-cli/internal/store"
)

// Tracker batches per-item progress increments so that a hundred workers do
// not turn every completion into a database write. Increments accumulate in
// memory and reach the store once flushEvery of them pile up; Flush pushes
// whatever remains at the end of a phase.
type Tracker struct {
	store      store.Store
	taskID     string
	flushEvery int

	mu      sync.Mutex
	pending int
}

// NewTracker creates a tracker for one task. flushEvery below 1 flushes on
// every increment.
func NewTracker(st store.Store, taskID string, flushEvery int) *Tracker {
	if flushEvery < 1 {
		flushEvery = 1
	}
	return &Tracker{store: st, taskID: taskID, flushEvery: flushEvery}
}

// Incr records one completed item.
func (t *Tracker) Incr(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending++
	if t.pending >= t.flushEvery {
		t.flushLocked(ctx)
	}
}

// Flush writes any pending increments to the store.
func (t *Tracker) Flush(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.flushLocked(ctx)
}

func (t *Tracker) flushLocked(ctx context.Context) {
	if t.pending == 0 {
		return
	}
	delta := t.pending
	t.pending = 0
	if err := t.store.AddProgress(ctx, t.taskID, delta); err != nil {
		// Progress is cosmetic; a failed write never stops the pipeline.
		zap.L().Warn("progress flush failed",
			zap.String("task_id", t.taskID),
			zap.Int("delta", delta),
			zap.Error(err))
	}
}
