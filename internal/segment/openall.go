package segment

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	emerrors "github.com/emberidx/emberidx/pkg/errors"
	"github.com/emberidx/emberidx/pkg/metrics"
	"github.com/emberidx/emberidx/pkg/resilience"
)

// openRetry bounds how hard OpenAll retries a single segment's open before
// giving up on it; a segment still being renamed into place by a concurrent
// Session.Commit resolves within a couple hundred milliseconds.
var openRetry = resilience.RetryConfig{
	MaxAttempts:  3,
	InitialDelay: 20 * time.Millisecond,
	MaxDelay:     200 * time.Millisecond,
}

// openBreaker trips once segment opens across a batch fail consecutively
// often enough to suggest the underlying filesystem, not one flapping
// rename, is the problem (an unmounted data dir, a dead network share) —
// in which case retrying every remaining path is just wasted backoff.
var openBreaker = resilience.NewCircuitBreaker("segment-open", resilience.CircuitBreakerConfig{
	FailureThreshold: 5,
	ResetTimeout:     2 * time.Second,
})

// OpenAll opens every segment file in paths concurrently, bounded by
// maxConcurrency, and returns the resulting Sources in the same order as
// paths. If any Open fails, every already-opened Source is closed and the
// first error encountered is returned. m is optional and is attached to
// every opened Source.
func OpenAll(ctx context.Context, paths []string, maxConcurrency int, m *metrics.Metrics) ([]*Source, error) {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	sources := make([]*Source, len(paths))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrency)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			var src *Source
			err := openBreaker.Execute(func() error {
				return resilience.Retry(ctx, "segment-open:"+path, openRetry, func() error {
					var openErr error
					src, openErr = OpenWithMetrics(path, m)
					if openErr != nil && !errors.Is(openErr, emerrors.ErrIO) {
						// Not a transient I/O failure (corrupt header, bad
						// magic); retrying will not help.
						return resilience.Permanent(openErr)
					}
					return openErr
				})
			})
			if err != nil {
				return err
			}
			sources[i] = src
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, src := range sources {
			if src != nil {
				src.Close()
			}
		}
		return nil, err
	}
	return sources, nil
}
