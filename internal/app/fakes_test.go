package app

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"pdfchat/internal/ai"
	"pdfchat/internal/model"
	"pdfchat/internal/vectorstore"
	"pdfchat/internal/weather"
)

type fakeEmbedder struct {
	mu     sync.Mutex
	calls  int
	inputs [][]string
	err    error
}

// Embed maps each text to a 3-d vector derived from its content.
func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.inputs = append(f.inputs, texts)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{1, float32(len(strings.Fields(t))%7 + 1), float32(strings.Count(t, "x") + 1)}
	}
	return out, nil
}

type fakeStream struct {
	fragments []string
	failAfter int
	err       error
	pos       int
	closed    bool
}

func (s *fakeStream) Recv() (string, error) {
	if s.err != nil && s.pos == s.failAfter {
		return "", s.err
	}
	if s.pos >= len(s.fragments) {
		return "", io.EOF
	}
	frag := s.fragments[s.pos]
	s.pos++
	return frag, nil
}

func (s *fakeStream) Close() error {
	s.closed = true
	return nil
}

type fakeGenerator struct {
	fragments   []string
	streamErr   error
	failAfter   int
	openErr     error
	answer      string
	prompts     []string
	streamCalls int
	genCalls    int
	last        *fakeStream
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string, _ int) (string, error) {
	g.genCalls++
	g.prompts = append(g.prompts, prompt)
	if g.openErr != nil {
		return "", g.openErr
	}
	return g.answer, nil
}

func (g *fakeGenerator) GenerateStream(_ context.Context, prompt string) (ai.Stream, error) {
	g.streamCalls++
	g.prompts = append(g.prompts, prompt)
	if g.openErr != nil {
		return nil, g.openErr
	}
	g.last = &fakeStream{fragments: g.fragments, err: g.streamErr, failAfter: g.failAfter}
	return g.last, nil
}

// countingStore records every call before delegating.
type countingStore struct {
	vectorstore.Store
	calls []string
}

func (s *countingStore) DeleteCollection(ctx context.Context, name string) error {
	s.calls = append(s.calls, "delete")
	return s.Store.DeleteCollection(ctx, name)
}

func (s *countingStore) CreateCollection(ctx context.Context, name string, dim int, metric vectorstore.Metric) error {
	s.calls = append(s.calls, "create")
	return s.Store.CreateCollection(ctx, name, dim, metric)
}

func (s *countingStore) Upsert(ctx context.Context, name string, points []vectorstore.Point) error {
	s.calls = append(s.calls, "upsert")
	return s.Store.Upsert(ctx, name, points)
}

func (s *countingStore) Search(ctx context.Context, name string, vector []float32, k int) ([]vectorstore.Hit, error) {
	s.calls = append(s.calls, "search")
	return s.Store.Search(ctx, name, vector, k)
}

type fakeExtractor struct {
	text string
	err  error
}

func (f fakeExtractor) ExtractFile(string) (string, error) { return f.text, f.err }

type fakeLedger struct {
	runs []model.DocumentRecord
	err  error
}

func (f *fakeLedger) RecordRun(_ context.Context, rec *model.DocumentRecord) error {
	f.runs = append(f.runs, *rec)
	return f.err
}

type fakeRecorder struct {
	records []model.EvaluationRecord
	err     error
}

func (f *fakeRecorder) Record(_ context.Context, rec model.EvaluationRecord) error {
	f.records = append(f.records, rec)
	return f.err
}

type fakeFetcher struct {
	report *weather.Report
	err    error
	calls  int
}

func (f *fakeFetcher) Current(context.Context, string) (*weather.Report, error) {
	f.calls++
	return f.report, f.err
}

type fakeCache struct {
	entries map[string]*weather.Report
	getErr  error
	sets    int
}

func (c *fakeCache) Get(_ context.Context, city string) (*weather.Report, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	r, ok := c.entries[city]
	return r, ok, nil
}

func (c *fakeCache) Set(_ context.Context, city string, r *weather.Report) error {
	if c.entries == nil {
		c.entries = map[string]*weather.Report{}
	}
	c.entries[city] = r
	c.sets++
	return nil
}

var errBoom = errors.New("boom")

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "w"
	}
	return strings.Join(parts, " ")
}
