package ai

import (
	"context"
	"errors"
)

// ErrEmptyEmbedding is returned when a provider answers with fewer vectors than inputs
// or with a zero-length vector.
var ErrEmptyEmbedding = errors.New("empty embedding in response")

// Embedder maps texts to vectors, one per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces answers either in one piece or as a pull stream.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
	GenerateStream(ctx context.Context, prompt string) (Stream, error)
}

// Stream is a finite, non-restartable sequence of text fragments. Recv returns
// io.EOF once the provider has finished. Close must be called by the consumer.
type Stream interface {
	Recv() (string, error)
	Close() error
}
