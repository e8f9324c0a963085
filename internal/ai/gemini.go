package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

type GeminiConfig struct {
	APIKey             string
	Model              string
	EmbeddingModel     string
	MaxOutputTokens    int
	EmbeddingBatchSize int
}

// GeminiClient serves both generation and embeddings from one genai client.
type GeminiClient struct {
	cfg    GeminiConfig
	client *genai.Client
}

func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client failed: %w", err)
	}
	return &GeminiClient{cfg: cfg, client: client}, nil
}

func (g *GeminiClient) Close() error {
	return g.client.Close()
}

func (g *GeminiClient) model(maxTokens int) *genai.GenerativeModel {
	m := g.client.GenerativeModel(g.cfg.Model)
	if maxTokens <= 0 {
		maxTokens = g.cfg.MaxOutputTokens
	}
	if maxTokens > 0 {
		m.SetMaxOutputTokens(int32(maxTokens))
	}
	return m
}

func (g *GeminiClient) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	resp, err := g.model(maxTokens).GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}
	return responseText(resp), nil
}

func (g *GeminiClient) GenerateStream(ctx context.Context, prompt string) (Stream, error) {
	streamCtx, cancel := context.WithCancel(ctx)
	iter := g.model(0).GenerateContentStream(streamCtx, genai.Text(prompt))
	return &geminiStream{iter: iter, cancel: cancel}, nil
}

// Embed calls BatchEmbedContents in sub-batches; the API caps a batch at 100 items.
func (g *GeminiClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	size := g.cfg.EmbeddingBatchSize
	if size <= 0 || size > defaultEmbeddingBatchSize {
		size = defaultEmbeddingBatchSize
	}
	em := g.client.EmbeddingModel(g.cfg.EmbeddingModel)
	return embedInBatches(ctx, texts, size, func(ctx context.Context, part []string) ([][]float32, error) {
		batch := em.NewBatch()
		for _, text := range part {
			batch.AddContent(genai.Text(text))
		}
		res, err := em.BatchEmbedContents(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("gemini embed batch failed: %w", err)
		}
		vectors := make([][]float32, 0, len(res.Embeddings))
		for _, emb := range res.Embeddings {
			if emb == nil {
				vectors = append(vectors, nil)
				continue
			}
			vectors = append(vectors, emb.Values)
		}
		return vectors, nil
	})
}

type geminiStream struct {
	iter   *genai.GenerateContentResponseIterator
	cancel context.CancelFunc
	done   bool
}

func (s *geminiStream) Recv() (string, error) {
	for !s.done {
		resp, err := s.iter.Next()
		if errors.Is(err, iterator.Done) {
			s.done = true
			return "", io.EOF
		}
		if err != nil {
			s.done = true
			return "", fmt.Errorf("gemini stream failed: %w", err)
		}
		if text := responseText(resp); text != "" {
			return text, nil
		}
	}
	return "", io.EOF
}

func (s *geminiStream) Close() error {
	s.done = true
	s.cancel()
	return nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
		break
	}
	return sb.String()
}
