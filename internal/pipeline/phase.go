package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RunPhase fans items out over a bounded worker pool and returns one result
// per item, in input order. A worker failure never aborts the phase: the
// item's slot gets fallback(item, err) and the rest keep going. When the
// context is cancelled, items not yet dispatched get their fallback with the
// cancellation error.
func RunPhase[T, R any](
	ctx context.Context,
	items []T,
	workers int,
	tr *Tracker,
	work func(ctx context.Context, item T) (R, error),
	fallback func(item T, err error) R,
) []R {
	results := make([]R, len(items))
	if len(items) == 0 {
		return results
	}
	if workers < 1 {
		workers = 1
	}

	var g errgroup.Group
	g.SetLimit(workers)

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			results[i] = fallback(item, err)
			continue
		}
		g.Go(func() error {
			res, err := work(ctx, item)
			if err != nil {
				zap.L().Warn("phase item failed",
					zap.String("item", fmt.Sprintf("%v", item)),
					zap.Error(err))
				res = fallback(item, err)
			}
			results[i] = res
			if tr != nil {
				tr.Incr(ctx)
			}
			return nil
		})
	}
	g.Wait() //nolint:errcheck

	if tr != nil {
		tr.Flush(ctx)
	}
	return results
}
