package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finrag/internal/config"
)

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	t.Setenv("TEST_OPENAI_KEY", "sk-test")
	client, err := NewClient(config.EmbedderConfig{
		BaseURL:   url,
		APIKeyEnv: "TEST_OPENAI_KEY",
		Model:     "text-embedding-ada-002",
		Dimension: 3,
	})
	require.NoError(t, err)
	return client
}

func TestNewClient_MissingKey(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "")
	_, err := NewClient(config.EmbedderConfig{APIKeyEnv: "TEST_OPENAI_KEY"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TEST_OPENAI_KEY")
}

func TestEmbedTexts_OrderFollowsIndexField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "text-embedding-ada-002", req.Model)
		assert.Equal(t, []string{"first", "second"}, req.Input)

		// respond out of order; the index field restores the input order
		fmt.Fprint(w, `{"data":[
			{"index":1,"embedding":[2,2,2]},
			{"index":0,"embedding":[1,1,1]}
		]}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	vectors, err := client.EmbedTexts(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{1, 1, 1}, vectors[0])
	assert.Equal(t, []float32{2, 2, 2}, vectors[1])
}

func TestEmbedTexts_RetriesOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"data":[{"index":0,"embedding":[1,2,3]}]}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	vectors, err := client.EmbedTexts(context.Background(), []string{"hello"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 2, 3}}, vectors)
	assert.Equal(t, int32(2), calls.Load())
}

func TestEmbedTexts_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"invalid key"}}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.EmbedTexts(context.Background(), []string{"hello"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid key")
	assert.Equal(t, int32(1), calls.Load())
}

func TestEmbedTexts_CountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"index":0,"embedding":[1]}]}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.EmbedTexts(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 2 embeddings")
}

func TestEmbedTexts_EmptyInput(t *testing.T) {
	client := newTestClient(t, "http://localhost:1")
	vectors, err := client.EmbedTexts(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestEmbedQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"index":0,"embedding":[0.5,0.5,0.5]}]}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	vector, err := client.EmbedQuery(context.Background(), "what was revenue in 2022")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5, 0.5}, vector)
	assert.Equal(t, 3, client.Dimension())
}
