package analysis

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// workerCount clamps the requested worker count to [1, n].
func workerCount(requested, n int) int {
	w := requested
	if w <= 0 {
		w = runtime.GOMAXPROCS(0)
	}
	if w > n {
		w = n
	}
	if w < 1 {
		w = 1
	}
	return w
}

// striped runs fn once per worker. Worker w owns items w, w+workers, ...
// of [0, n); interleaving keeps the triangular pair loop balanced.
func striped(ctx context.Context, n, workers int, fn func(ctx context.Context, w int) error) error {
	if workers == 1 {
		return fn(ctx, 0)
	}
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			return fn(gctx, w)
		})
	}
	return g.Wait()
}
