package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pdfchat/internal/ai"
	"pdfchat/internal/model"
	"pdfchat/internal/pkg/chunker"
	"pdfchat/internal/vectorstore"
)

const maxStoredTextRunes = 2000

type TextExtractor interface {
	ExtractFile(path string) (string, error)
}

// DocumentLedger records successful index runs. Optional.
type DocumentLedger interface {
	RecordRun(ctx context.Context, rec *model.DocumentRecord) error
}

type IndexerConfig struct {
	Collection   string
	ChunkWords   int
	OverlapWords int
}

// Indexer replaces the collection with the chunks of one document.
type Indexer struct {
	extractor TextExtractor
	embedder  ai.Embedder
	store     vectorstore.Store
	ledger    DocumentLedger
	cfg       IndexerConfig
	log       *logrus.Entry
}

func NewIndexer(
	extractor TextExtractor,
	embedder ai.Embedder,
	store vectorstore.Store,
	ledger DocumentLedger,
	cfg IndexerConfig,
	log *logrus.Entry,
) *Indexer {
	if cfg.ChunkWords == 0 && cfg.OverlapWords == 0 {
		cfg.ChunkWords = chunker.DefaultChunkWords
		cfg.OverlapWords = chunker.DefaultOverlapWords
	}
	return &Indexer{
		extractor: extractor,
		embedder:  embedder,
		store:     store,
		ledger:    ledger,
		cfg:       cfg,
		log:       log,
	}
}

// Index returns the number of chunks written. Previously indexed documents
// are dropped; a failure after the delete step may leave the collection empty.
func (i *Indexer) Index(ctx context.Context, path string) (int, error) {
	source := filepath.Base(path)
	log := i.log.WithField("source", source)

	text, err := i.extractor.ExtractFile(path)
	if err != nil {
		return 0, fmt.Errorf("extract text from %s failed: %w", source, err)
	}
	chunks, err := chunker.Split(text, i.cfg.ChunkWords, i.cfg.OverlapWords)
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		log.Warn("document has no extractable text")
		return 0, nil
	}

	vectors, err := i.embedder.Embed(ctx, chunks)
	if err != nil {
		return 0, upstream("embedding", err)
	}
	if len(vectors) != len(chunks) || len(vectors[0]) == 0 {
		return 0, upstream("embedding", fmt.Errorf("%w: got %d vectors for %d chunks", ai.ErrEmptyEmbedding, len(vectors), len(chunks)))
	}
	dim := len(vectors[0])

	if err := i.store.DeleteCollection(ctx, i.cfg.Collection); err != nil {
		return 0, upstream("vector store", err)
	}
	if err := i.store.CreateCollection(ctx, i.cfg.Collection, dim, vectorstore.MetricCosine); err != nil {
		return 0, upstream("vector store", err)
	}

	points := make([]vectorstore.Point, len(chunks))
	for idx, chunk := range chunks {
		points[idx] = vectorstore.Point{
			ID:     uuid.NewString(),
			Vector: vectors[idx],
			Payload: model.ChunkPayload{
				Source:     source,
				ChunkIndex: idx,
				Text:       truncateRunes(chunk, maxStoredTextRunes),
			},
		}
	}
	if err := i.store.Upsert(ctx, i.cfg.Collection, points); err != nil {
		return 0, upstream("vector store", err)
	}

	if i.ledger != nil {
		rec := &model.DocumentRecord{Filename: source, ChunkCount: len(chunks), Collection: i.cfg.Collection}
		if err := i.ledger.RecordRun(ctx, rec); err != nil {
			log.WithError(err).Warn("record document run failed")
		}
	}

	log.WithFields(logrus.Fields{"chunks": len(chunks), "dim": dim}).Info("document indexed")
	return len(chunks), nil
}

func truncateRunes(s string, n int) string {
	count := 0
	for idx := range s {
		if count == n {
			return s[:idx]
		}
		count++
	}
	return s
}
