package milvus

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"pdfchat/internal/model"
	"pdfchat/internal/vectorstore"
)

// Schema fields of a chunk collection.
const (
	FieldID         = "id"
	FieldSource     = "source"
	FieldChunkIndex = "chunk_index"
	FieldText       = "content"
	FieldEmbedding  = "embedding"
)

// Store adapts a Milvus collection per index run. The dimension is fixed by
// the schema, so mismatched upserts are rejected server side.
type Store struct {
	client client.Client
}

func New(ctx context.Context, address string) (*Store, error) {
	c, err := client.NewClient(ctx, client.Config{Address: address})
	if err != nil {
		return nil, fmt.Errorf("connect milvus failed: %w", err)
	}
	return &Store{client: c}, nil
}

func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	exists, err := s.client.HasCollection(ctx, name)
	if err != nil {
		return fmt.Errorf("check milvus collection %s failed: %w", name, err)
	}
	if !exists {
		return nil
	}
	if err := s.client.DropCollection(ctx, name); err != nil {
		return fmt.Errorf("drop milvus collection %s failed: %w", name, err)
	}
	return nil
}

func (s *Store) CreateCollection(ctx context.Context, name string, dim int, metric vectorstore.Metric) error {
	if metric != vectorstore.MetricCosine {
		return fmt.Errorf("unsupported metric %q", metric)
	}
	schema := entity.NewSchema().
		WithName(name).
		WithDescription("pdf chunks").
		WithField(entity.NewField().WithName(FieldID).WithDataType(entity.FieldTypeVarChar).WithIsPrimaryKey(true).WithMaxLength(64)).
		WithField(entity.NewField().WithName(FieldSource).WithDataType(entity.FieldTypeVarChar).WithMaxLength(512)).
		WithField(entity.NewField().WithName(FieldChunkIndex).WithDataType(entity.FieldTypeInt64)).
		WithField(entity.NewField().WithName(FieldText).WithDataType(entity.FieldTypeVarChar).WithMaxLength(8192)).
		WithField(entity.NewField().WithName(FieldEmbedding).WithDataType(entity.FieldTypeFloatVector).WithDim(int64(dim)))

	if err := s.client.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		return fmt.Errorf("create milvus collection %s failed: %w", name, err)
	}
	idx, err := entity.NewIndexFlat(entity.COSINE)
	if err != nil {
		return fmt.Errorf("build milvus index failed: %w", err)
	}
	if err := s.client.CreateIndex(ctx, name, FieldEmbedding, idx, false); err != nil {
		return fmt.Errorf("create milvus index on %s failed: %w", name, err)
	}
	if err := s.client.LoadCollection(ctx, name, false); err != nil {
		return fmt.Errorf("load milvus collection %s failed: %w", name, err)
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, name string, points []vectorstore.Point) error {
	if len(points) == 0 {
		return nil
	}
	ids := make([]string, len(points))
	sources := make([]string, len(points))
	indexes := make([]int64, len(points))
	texts := make([]string, len(points))
	vectors := make([][]float32, len(points))
	dim := len(points[0].Vector)
	for i, p := range points {
		if len(p.Vector) != dim {
			return fmt.Errorf("%w: point %s", vectorstore.ErrDimensionMismatch, p.ID)
		}
		ids[i] = p.ID
		sources[i] = p.Payload.Source
		indexes[i] = int64(p.Payload.ChunkIndex)
		texts[i] = p.Payload.Text
		vectors[i] = p.Vector
	}

	_, err := s.client.Upsert(ctx, name, "",
		entity.NewColumnVarChar(FieldID, ids),
		entity.NewColumnVarChar(FieldSource, sources),
		entity.NewColumnInt64(FieldChunkIndex, indexes),
		entity.NewColumnVarChar(FieldText, texts),
		entity.NewColumnFloatVector(FieldEmbedding, dim, vectors),
	)
	if err != nil {
		return fmt.Errorf("upsert %d rows into %s failed: %w", len(points), name, err)
	}
	if err := s.client.Flush(ctx, name, false); err != nil {
		return fmt.Errorf("flush milvus collection %s failed: %w", name, err)
	}
	return nil
}

func (s *Store) Search(ctx context.Context, name string, vector []float32, k int) ([]vectorstore.Hit, error) {
	if k <= 0 {
		return nil, nil
	}
	exists, err := s.client.HasCollection(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("check milvus collection %s failed: %w", name, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", vectorstore.ErrCollectionNotFound, name)
	}

	sp, err := entity.NewIndexFlatSearchParam()
	if err != nil {
		return nil, fmt.Errorf("build milvus search param failed: %w", err)
	}
	results, err := s.client.Search(
		ctx, name, []string{}, "", []string{FieldSource, FieldChunkIndex, FieldText},
		[]entity.Vector{entity.FloatVector(vector)},
		FieldEmbedding, entity.COSINE, k, sp,
	)
	if err != nil {
		return nil, fmt.Errorf("search milvus collection %s failed: %w", name, err)
	}

	var hits []vectorstore.Hit
	for _, res := range results {
		hits = append(hits, hitsFromColumns(res.Fields, res.Scores, res.ResultCount)...)
	}
	return hits, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.client.ListCollections(ctx); err != nil {
		return fmt.Errorf("milvus health check failed: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func hitsFromColumns(fields []entity.Column, scores []float32, count int) []vectorstore.Hit {
	findColumn := func(name string) entity.Column {
		for _, field := range fields {
			if field.Name() == name {
				return field
			}
		}
		return nil
	}

	var sources, texts []string
	var indexes []int64
	if col, ok := findColumn(FieldSource).(*entity.ColumnVarChar); ok {
		sources = col.Data()
	}
	if col, ok := findColumn(FieldText).(*entity.ColumnVarChar); ok {
		texts = col.Data()
	}
	if col, ok := findColumn(FieldChunkIndex).(*entity.ColumnInt64); ok {
		indexes = col.Data()
	}

	hits := make([]vectorstore.Hit, 0, count)
	for i := 0; i < count; i++ {
		var payload model.ChunkPayload
		if i < len(sources) {
			payload.Source = sources[i]
		}
		if i < len(texts) {
			payload.Text = texts[i]
		}
		if i < len(indexes) {
			payload.ChunkIndex = int(indexes[i])
		}
		var score float32
		if i < len(scores) {
			score = scores[i]
		}
		hits = append(hits, vectorstore.Hit{Payload: payload, Score: score})
	}
	return hits
}

var _ vectorstore.Store = (*Store)(nil)
