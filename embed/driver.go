// Package embed drives an Embedder over a batch of texts with bounded
// concurrency and per-request retry, preserving input order in the result
// slice (§4.10).
package embed

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/orcarun/orca"
)

const (
	initialBackoff = 100 * time.Millisecond
	capBackoff     = 10 * time.Second
	maxAttempts    = 5
)

// Driver embeds a batch of texts against a single Embedder, capping the
// number of in-flight requests at Concurrency and retrying transient
// failures with exponential backoff before giving up on an entry.
type Driver struct {
	Embedder    orca.Embedder
	Concurrency int
}

// New returns a Driver bounded to concurrency simultaneous requests.
func New(embedder orca.Embedder, concurrency int) *Driver {
	return &Driver{Embedder: embedder, Concurrency: concurrency}
}

// EmbedAll embeds every text in texts and returns one Embedding per input,
// in input order. The first request to exhaust its retry budget aborts the
// whole batch with an EmbeddingBatchError identifying its index; in-flight
// siblings are canceled via ctx.
func (d *Driver) EmbedAll(ctx context.Context, texts []string) ([]orca.Embedding, error) {
	concurrency := d.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	sem := semaphore.NewWeighted(int64(concurrency))
	results := make([]orca.Embedding, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	for i, text := range texts {
		i, text := i, text
		if err := sem.Acquire(gctx, 1); err != nil {
			if werr := g.Wait(); werr != nil {
				return nil, werr
			}
			return nil, err
		}
		g.Go(func() error {
			defer sem.Release(1)
			emb, err := embedWithRetry(gctx, d.Embedder, text)
			if err != nil {
				return &orca.EmbeddingBatchError{Index: i, Cause: err}
			}
			results[i] = emb
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// embedWithRetry calls embedder.Embed up to maxAttempts times, waiting an
// exponentially increasing backoff (capped at capBackoff) between attempts.
func embedWithRetry(ctx context.Context, embedder orca.Embedder, text string) (orca.Embedding, error) {
	backoff := initialBackoff
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		emb, err := embedder.Embed(ctx, text)
		if err == nil {
			return emb, nil
		}
		lastErr = err
		if attempt == maxAttempts {
			break
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		backoff *= 2
		if backoff > capBackoff {
			backoff = capBackoff
		}
	}
	return nil, lastErr
}
