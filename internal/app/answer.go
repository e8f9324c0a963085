package app

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"pdfchat/internal/ai"
	"pdfchat/internal/vectorstore"
)

const (
	DefaultTopK     = 4
	NoContextAnswer = "I couldn't find any relevant information in the uploaded PDF."

	promptPreamble = "You are a helpful assistant. Use the following document context to answer the question.\n" +
		"Guidelines:\n" +
		"1. Structure your answer using clear bullet points where appropriate.\n" +
		"2. Keep the answer concise and easy to read.\n\n" +
		"Context:\n"
)

type AnswererConfig struct {
	Collection string
	MaxTokens  int
}

// Answerer runs retrieval followed by generation for document questions.
type Answerer struct {
	embedder  ai.Embedder
	store     vectorstore.Store
	generator ai.Generator
	cfg       AnswererConfig
	log       *logrus.Entry
}

func NewAnswerer(embedder ai.Embedder, store vectorstore.Store, generator ai.Generator, cfg AnswererConfig, log *logrus.Entry) *Answerer {
	return &Answerer{
		embedder:  embedder,
		store:     store,
		generator: generator,
		cfg:       cfg,
		log:       log,
	}
}

// Answer returns a lazy fragment stream. No gateway is called before the
// first Next.
func (a *Answerer) Answer(ctx context.Context, query string, topK int) *AnswerStream {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &AnswerStream{ctx: ctx, answerer: a, query: query, topK: topK}
}

// AnswerOnce is the blocking variant. Failures come back as "Error: ..." text.
func (a *Answerer) AnswerOnce(ctx context.Context, query string, topK int) string {
	if topK <= 0 {
		topK = DefaultTopK
	}
	contexts, err := a.retrieve(ctx, query, topK)
	if err != nil {
		return errorFragment(err)
	}
	if len(contexts) == 0 {
		return NoContextAnswer
	}
	out, err := a.generator.Generate(ctx, buildPrompt(query, contexts), a.cfg.MaxTokens)
	if err != nil {
		return errorFragment(upstream("generation", err))
	}
	return out
}

func (a *Answerer) retrieve(ctx context.Context, query string, topK int) ([]string, error) {
	vectors, err := a.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, upstream("embedding", err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, upstream("embedding", ai.ErrEmptyEmbedding)
	}

	hits, err := a.store.Search(ctx, a.cfg.Collection, vectors[0], topK)
	if err != nil {
		return nil, upstream("vector store", err)
	}
	contexts := make([]string, 0, len(hits))
	for _, hit := range hits {
		contexts = append(contexts, hit.Payload.Text)
	}
	a.log.WithFields(logrus.Fields{"top_k": topK, "hits": len(hits)}).Debug("retrieved context")
	return contexts, nil
}

func buildPrompt(query string, contexts []string) string {
	var sb strings.Builder
	sb.WriteString(promptPreamble)
	sb.WriteString(strings.Join(contexts, "\n\n"))
	sb.WriteString("\n\nQuestion: ")
	sb.WriteString(query)
	return sb.String()
}

func errorFragment(err error) string {
	return "Error: " + err.Error()
}

// AnswerStream is a single-consumer pull iterator over answer fragments.
// A failure anywhere ends the stream with one "Error: ..." fragment.
type AnswerStream struct {
	ctx      context.Context
	answerer *Answerer
	query    string
	topK     int

	started bool
	done    bool
	stream  ai.Stream
}

// Next returns the next fragment, or false once the stream is exhausted.
func (s *AnswerStream) Next() (string, bool) {
	if s.done {
		return "", false
	}
	if !s.started {
		s.started = true
		contexts, err := s.answerer.retrieve(s.ctx, s.query, s.topK)
		if err != nil {
			return s.finish(errorFragment(err))
		}
		if len(contexts) == 0 {
			return s.finish(NoContextAnswer)
		}
		stream, err := s.answerer.generator.GenerateStream(s.ctx, buildPrompt(s.query, contexts))
		if err != nil {
			return s.finish(errorFragment(upstream("generation", err)))
		}
		s.stream = stream
	}

	for {
		frag, err := s.stream.Recv()
		if errors.Is(err, io.EOF) {
			s.Close()
			return "", false
		}
		if err != nil {
			s.Close()
			return errorFragment(upstream("generation", err)), true
		}
		if frag == "" {
			continue
		}
		return frag, true
	}
}

// Close releases the provider stream. It is safe to call more than once.
func (s *AnswerStream) Close() {
	s.done = true
	if s.stream != nil {
		if err := s.stream.Close(); err != nil {
			s.answerer.log.WithError(err).Debug("close generation stream failed")
		}
		s.stream = nil
	}
}

func (s *AnswerStream) finish(last string) (string, bool) {
	s.Close()
	return last, true
}
