package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/kirillkom/hybrid-search/internal/core/domain"
	"github.com/kirillkom/hybrid-search/internal/core/ports"
)

// embedInBatches embeds texts in fixed-size batches on a bounded worker
// pool. Output order matches input order. The first failing batch cancels
// the rest.
func embedInBatches(ctx context.Context, embedder ports.Embedder, texts []string, batchSize, workers int) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if batchSize <= 0 {
		batchSize = 32
	}
	if workers <= 0 {
		workers = 1
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create embedding pool: %w", err)
	}
	defer pool.Release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	vectors := make([][]float32, len(texts))
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for start := 0; start < len(texts); start += batchSize {
		end := min(start+batchSize, len(texts))
		batch := texts[start:end]
		offset := start

		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			out, err := embedder.Embed(ctx, batch)
			if err != nil {
				fail(fmt.Errorf("embed batch at %d: %w", offset, err))
				return
			}
			if len(out) != len(batch) {
				fail(domain.WrapError(domain.ErrTemporary, "embed batch",
					fmt.Errorf("got %d vectors for %d texts", len(out), len(batch))))
				return
			}
			copy(vectors[offset:], out)
		})
		if submitErr != nil {
			wg.Done()
			fail(fmt.Errorf("submit embedding batch: %w", submitErr))
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return vectors, nil
}
