// Package worker provides the bounded-concurrency mapping primitive
// used for registry fan-out and vulnerability batch dispatch.
package worker

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultLimit bounds in-flight operations when the caller passes no
// explicit limit.
const DefaultLimit = 10

// Map applies fn to every element of items with at most limit
// invocations in flight, and returns the outputs in input order
// regardless of completion order. When limit >= len(items) every item
// starts immediately.
//
// The first error observed fails the whole call. In-flight invocations
// are not forcibly cancelled: the group context is cancelled and they
// are allowed to settle cooperatively, their results discarded.
func Map[T, U any](ctx context.Context, items []T, limit int, fn func(ctx context.Context, index int, item T) (U, error)) ([]U, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	results := make([]U, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, item := range items {
		g.Go(func() error {
			out, err := fn(gctx, i, item)
			if err != nil {
				return err
			}
			results[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
