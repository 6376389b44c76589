package workgroup

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Group runs long-lived workers (the scheduler, the metrics listener) that
// share one context. The first worker to fail cancels the others.
type Group struct {
	ctx   context.Context
	group *errgroup.Group
}

// WithContext returns a Group whose workers observe ctx.
func WithContext(ctx context.Context) *Group {
	g, gctx := errgroup.WithContext(ctx)
	return &Group{
		ctx:   gctx,
		group: g,
	}
}

// Work starts fn in its own goroutine.
func (g *Group) Work(fn func(context.Context) error) {
	g.group.Go(func() error {
		return fn(g.ctx)
	})
}

// Wait blocks until every worker returned and reports the first error.
func (g *Group) Wait() error {
	return g.group.Wait()
}
