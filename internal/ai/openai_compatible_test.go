package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenAICompatibleClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAICompatibleClient(OpenAIConfig{
		BaseURL:            srv.URL + "/v1/",
		APIKey:             "secret",
		Model:              "chat-model",
		EmbeddingModel:     "embed-model",
		EmbeddingBatchSize: 2,
	})
}

func TestGenerate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, false, body["stream"])
		assert.EqualValues(t, 512, body["max_tokens"])

		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"hello"}}]}`)
	})

	out, err := client.Generate(context.Background(), "hi", 512)
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestGenerate_StatusError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	})

	_, err := client.Generate(context.Background(), "hi", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestGenerateStream_PullsFragmentsInOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, ": keep-alive\n\n")
		_, _ = io.WriteString(w, `data: {"choices":[{"delta":{"content":"Hel"}}]}`+"\n\n")
		_, _ = io.WriteString(w, `data: {"choices":[{"delta":{"content":""}}]}`+"\n\n")
		_, _ = io.WriteString(w, "data: not-json\n\n")
		_, _ = io.WriteString(w, `data: {"choices":[{"delta":{"content":"lo"}}]}`+"\n\n")
		_, _ = io.WriteString(w, "data: [DONE]\n\n")
		_, _ = io.WriteString(w, `data: {"choices":[{"delta":{"content":"ignored"}}]}`+"\n\n")
	})

	stream, err := client.GenerateStream(context.Background(), "hi")
	require.NoError(t, err)
	defer stream.Close()

	var got []string
	for {
		frag, err := stream.Recv()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, frag)
	}
	assert.Equal(t, []string{"Hel", "lo"}, got)

	_, err = stream.Recv()
	assert.Equal(t, io.EOF, err)
}

func TestGenerateStream_InBandError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `data: {"choices":[{"delta":{"content":"partial"}}]}`+"\n\n")
		_, _ = io.WriteString(w, `data: {"error":{"message":"overloaded"}}`+"\n\n")
	})

	stream, err := client.GenerateStream(context.Background(), "hi")
	require.NoError(t, err)
	defer stream.Close()

	frag, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, "partial", frag)

	_, err = stream.Recv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overloaded")
}

func TestGenerateStream_StatusError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	})

	_, err := client.GenerateStream(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestEmbed_BatchesAndKeepsOrder(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		var body struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "embed-model", body.Model)
		assert.LessOrEqual(t, len(body.Input), 2)

		// answer in reverse to make sure the index field is honored
		var data []map[string]any
		for i := len(body.Input) - 1; i >= 0; i-- {
			var n float32
			_, _ = fmt.Sscanf(body.Input[i], "t%f", &n)
			data = append(data, map[string]any{"index": i, "embedding": []float32{n, 1}})
		}
		calls.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
	})

	vectors, err := client.Embed(context.Background(), []string{"t0", "t1", "t2", "t3", "t4"})
	require.NoError(t, err)
	require.Len(t, vectors, 5)
	for i, v := range vectors {
		assert.Equal(t, []float32{float32(i), 1}, v)
	}
	assert.EqualValues(t, 3, calls.Load())
}

func TestEmbed_CountMismatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":[{"index":0,"embedding":[1,2]}]}`)
	})

	_, err := client.Embed(context.Background(), []string{"a", "b"})
	assert.ErrorIs(t, err, ErrEmptyEmbedding)
}

func TestEmbedInBatches_Empty(t *testing.T) {
	out, err := embedInBatches(context.Background(), nil, 10, func(context.Context, []string) ([][]float32, error) {
		t.Fatal("must not be called")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestEmbedInBatches_ZeroLengthVector(t *testing.T) {
	_, err := embedInBatches(context.Background(), []string{"a"}, 10, func(context.Context, []string) ([][]float32, error) {
		return [][]float32{{}}, nil
	})
	assert.ErrorIs(t, err, ErrEmptyEmbedding)
}
