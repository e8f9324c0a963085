package qdrant

import (
	"context"
	"fmt"
	"strings"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"pdfchat/internal/model"
	"pdfchat/internal/vectorstore"
)

const (
	fieldSource     = "source"
	fieldChunkIndex = "chunk_index"
	fieldText       = "text"
)

type Config struct {
	Host   string
	Port   int
	APIKey string
	UseTLS bool
}

// Store talks to Qdrant over gRPC.
type Store struct {
	client *qdrant.Client
}

func New(cfg Config) (*Store, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client failed: %w", err)
	}
	return &Store{client: client}, nil
}

func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	if err := s.client.DeleteCollection(ctx, name); err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("delete qdrant collection %s failed: %w", name, err)
	}
	return nil
}

func (s *Store) CreateCollection(ctx context.Context, name string, dim int, metric vectorstore.Metric) error {
	if metric != vectorstore.MetricCosine {
		return fmt.Errorf("unsupported metric %q", metric)
	}
	err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dim),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create qdrant collection %s failed: %w", name, err)
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, name string, points []vectorstore.Point) error {
	if len(points) == 0 {
		return nil
	}
	structs := make([]*qdrant.PointStruct, 0, len(points))
	for _, p := range points {
		payload, err := qdrant.TryValueMap(map[string]any{
			fieldSource:     p.Payload.Source,
			fieldChunkIndex: p.Payload.ChunkIndex,
			fieldText:       p.Payload.Text,
		})
		if err != nil {
			return fmt.Errorf("build qdrant payload for %s failed: %w", p.ID, err)
		}
		structs = append(structs, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(p.ID),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: payload,
		})
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: name,
		Wait:           qdrant.PtrOf(true),
		Points:         structs,
	})
	if err != nil {
		return fmt.Errorf("upsert %d points into %s failed: %w", len(points), name, err)
	}
	return nil
}

func (s *Store) Search(ctx context.Context, name string, vector []float32, k int) ([]vectorstore.Hit, error) {
	if k <= 0 {
		return nil, nil
	}
	scored, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: name,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", vectorstore.ErrCollectionNotFound, name)
		}
		return nil, fmt.Errorf("query qdrant collection %s failed: %w", name, err)
	}

	hits := make([]vectorstore.Hit, 0, len(scored))
	for _, sp := range scored {
		hits = append(hits, vectorstore.Hit{
			Payload: payloadOf(sp.GetPayload()),
			Score:   sp.GetScore(),
		})
	}
	return hits, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("qdrant health check failed: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func payloadOf(values map[string]*qdrant.Value) model.ChunkPayload {
	return model.ChunkPayload{
		Source:     values[fieldSource].GetStringValue(),
		ChunkIndex: int(values[fieldChunkIndex].GetIntegerValue()),
		Text:       values[fieldText].GetStringValue(),
	}
}

// isNotFound accepts both the gRPC status and the REST-style message some
// server versions return for a missing collection.
func isNotFound(err error) bool {
	if status.Code(err) == codes.NotFound {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "doesn't exist")
}

var _ vectorstore.Store = (*Store)(nil)
