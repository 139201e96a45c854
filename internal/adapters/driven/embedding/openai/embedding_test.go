package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestNew_Defaults(t *testing.T) {
	c, err := New(Config{APIKey: "sk-test"})
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, c.ModelName())
	assert.Equal(t, 1536, c.Dimensions())
}

func TestEmbedBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Input, 2)

		resp := map[string]any{
			"data": []map[string]any{
				{"embedding": []float64{0.1, 0.2, 0.3}, "index": 1},
				{"embedding": []float64{0.4, 0.5, 0.6}, "index": 0},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	c, err := New(Config{APIKey: "sk-test", BaseURL: server.URL, Dimensions: 3})
	require.NoError(t, err)

	got, err := c.EmbedBatch(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Results ordered by index, not arrival order.
	assert.Equal(t, []float32{0.4, 0.5, 0.6}, got[0])
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, got[1])
}

func TestEmbed_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "rate limited", "type": "rate_limit_error"},
		})
	}))
	defer server.Close()

	c, err := New(Config{APIKey: "sk-test", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = c.Embed(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestEmbedBatch_EmptyInput(t *testing.T) {
	c, err := New(Config{APIKey: "sk-test"})
	require.NoError(t, err)

	got, err := c.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c, err := New(Config{APIKey: "sk-test", BaseURL: server.URL})
	require.NoError(t, err)

	assert.NoError(t, c.Ping(context.Background()))
}
