package ai

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

const defaultEmbeddingBatchSize = 100

type batchEmbedFunc func(ctx context.Context, texts []string) ([][]float32, error)

// embedInBatches splits texts into sub-batches of at most size items and embeds
// them concurrently. The result keeps input order.
func embedInBatches(ctx context.Context, texts []string, size int, fn batchEmbedFunc) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if size <= 0 {
		size = defaultEmbeddingBatchSize
	}

	result := make([][]float32, len(texts))
	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(4)
	for start := 0; start < len(texts); start += size {
		start := start
		end := min(start+size, len(texts))
		eg.Go(func() error {
			vectors, err := fn(gCtx, texts[start:end])
			if err != nil {
				return err
			}
			if len(vectors) != end-start {
				return fmt.Errorf("%w: got %d vectors for %d texts", ErrEmptyEmbedding, len(vectors), end-start)
			}
			for i, v := range vectors {
				if len(v) == 0 {
					return fmt.Errorf("%w: text %d", ErrEmptyEmbedding, start+i)
				}
				result[start+i] = v
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}
