package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"pdfchat/internal/vectorstore"
)

type collection struct {
	dim    int
	points []vectorstore.Point
	index  map[string]int
}

// Store is an in-process brute-force cosine store. It backs tests and the
// "memory" backend for local runs without a vector database.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

func New() *Store {
	return &Store{collections: make(map[string]*collection)}
}

func (s *Store) DeleteCollection(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, name)
	return nil
}

func (s *Store) CreateCollection(_ context.Context, name string, dim int, metric vectorstore.Metric) error {
	if dim <= 0 {
		return fmt.Errorf("invalid dimension %d", dim)
	}
	if metric != vectorstore.MetricCosine {
		return fmt.Errorf("unsupported metric %q", metric)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; ok {
		return fmt.Errorf("%w: %s", vectorstore.ErrCollectionExists, name)
	}
	s.collections[name] = &collection{dim: dim, index: make(map[string]int)}
	return nil
}

// Upsert rejects the whole batch if any vector has the wrong dimension.
func (s *Store) Upsert(_ context.Context, name string, points []vectorstore.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[name]
	if !ok {
		return fmt.Errorf("%w: %s", vectorstore.ErrCollectionNotFound, name)
	}
	for _, p := range points {
		if len(p.Vector) != c.dim {
			return fmt.Errorf("%w: point %s has %d, collection has %d", vectorstore.ErrDimensionMismatch, p.ID, len(p.Vector), c.dim)
		}
	}
	for _, p := range points {
		p.Vector = append([]float32(nil), p.Vector...)
		if i, exists := c.index[p.ID]; exists {
			c.points[i] = p
			continue
		}
		c.index[p.ID] = len(c.points)
		c.points = append(c.points, p)
	}
	return nil
}

// Search ranks by cosine similarity; ties keep insertion order.
func (s *Store) Search(_ context.Context, name string, vector []float32, k int) ([]vectorstore.Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", vectorstore.ErrCollectionNotFound, name)
	}
	if len(vector) != c.dim {
		return nil, fmt.Errorf("%w: query has %d, collection has %d", vectorstore.ErrDimensionMismatch, len(vector), c.dim)
	}
	if k <= 0 {
		return nil, nil
	}

	hits := make([]vectorstore.Hit, len(c.points))
	for i, p := range c.points {
		hits[i] = vectorstore.Hit{Payload: p.Payload, Score: cosine(p.Vector, vector)}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Count returns the number of points in a collection, or -1 when it does not exist.
func (s *Store) Count(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return -1
	}
	return len(c.points)
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func cosine(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

var _ vectorstore.Store = (*Store)(nil)
