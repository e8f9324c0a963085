// Package vectorstore defines the nearest-neighbor store used for chunk retrieval.
// Backends live in subpackages.
package vectorstore

import (
	"context"
	"errors"

	"pdfchat/internal/model"
)

var (
	ErrCollectionNotFound = errors.New("collection not found")
	ErrCollectionExists   = errors.New("collection already exists")
	ErrDimensionMismatch  = errors.New("vector dimension mismatch")
)

type Metric string

const (
	MetricCosine Metric = "cosine"
)

type Point struct {
	ID      string
	Vector  []float32
	Payload model.ChunkPayload
}

// Hit is one search result. Hits are returned best first.
type Hit struct {
	Payload model.ChunkPayload
	Score   float32
}

type Store interface {
	// DeleteCollection is idempotent: a missing collection is not an error.
	DeleteCollection(ctx context.Context, name string) error
	CreateCollection(ctx context.Context, name string, dim int, metric Metric) error
	Upsert(ctx context.Context, name string, points []Point) error
	Search(ctx context.Context, name string, vector []float32, k int) ([]Hit, error)
	Ping(ctx context.Context) error
	Close() error
}
