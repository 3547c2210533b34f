package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BaSui01/embedgate/config"
	"github.com/BaSui01/embedgate/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestOpenAI(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.DefaultOpenAIConfig()
	cfg.APIKey = "sk-test"
	cfg.BaseURL = srv.URL + "/v1/"
	cfg.Timeout = 5 * time.Second
	return NewOpenAIClient(cfg, zap.NewNop())
}

func TestOpenAIClient_Embed(t *testing.T) {
	t.Parallel()

	c := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "text-embedding-3-large", body["model"])
		assert.Equal(t, []any{"  raw text "}, body["input"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"object":"embedding","index":0,"embedding":[0.1,0.2,0.3]}],"model":"text-embedding-3-large","usage":{"prompt_tokens":2,"total_tokens":2}}`))
	})

	vec, err := c.Embed(context.Background(), "  raw text ")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestOpenAIClient_EmbedEmptyData(t *testing.T) {
	t.Parallel()

	c := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[],"model":"m"}`))
	})

	_, err := c.Embed(context.Background(), "hi")
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrUpstreamError))
}

func TestOpenAIClient_Complete(t *testing.T) {
	t.Parallel()

	c := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)

		var body struct {
			Model       string  `json:"model"`
			Temperature float64 `json:"temperature"`
			Messages    []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4", body.Model)
		assert.InDelta(t, 0.7, body.Temperature, 0.0001)
		require.Len(t, body.Messages, 1)
		assert.Equal(t, "user", body.Messages[0].Role)
		assert.Equal(t, "Hello", body.Messages[0].Content)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4",
"choices":[{"index":0,"message":{"role":"assistant","content":"Hi there"},"finish_reason":"stop"}],
"usage":{"prompt_tokens":9,"completion_tokens":3,"total_tokens":12}}`))
	})

	res, err := c.Complete(context.Background(), "Hello")
	require.NoError(t, err)
	assert.Equal(t, "Hi there", res.Response)
	assert.Equal(t, Usage{PromptTokens: 9, CompletionTokens: 3, TotalTokens: 12}, res.Usage)
}

func TestOpenAIClient_CompleteNoChoices(t *testing.T) {
	t.Parallel()

	c := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[],"usage":{}}`))
	})

	_, err := c.Complete(context.Background(), "Hello")
	assert.True(t, types.IsErrorCode(err, types.ErrUpstreamError))
}

func TestOpenAIClient_UpstreamStatusError(t *testing.T) {
	t.Parallel()

	c := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`))
	})

	_, err := c.Embed(context.Background(), "hi")
	require.Error(t, err)
	e, ok := types.AsError(err)
	require.True(t, ok)
	assert.Equal(t, "openai", e.Provider)
	// 上游 401 不会透传给调用方
	assert.Equal(t, http.StatusInternalServerError, e.Status())

	_, err = c.Complete(context.Background(), "hi")
	assert.True(t, types.IsErrorCode(err, types.ErrUpstreamError))
}

func TestOpenAIClient_ContextCanceled(t *testing.T) {
	t.Parallel()

	c := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Embed(ctx, "hi")
	assert.Error(t, err)
}

func TestNewHTTPClient(t *testing.T) {
	c := newHTTPClient(5*time.Second, zap.NewNop())
	assert.Equal(t, 5*time.Second, c.Timeout)

	tr, ok := c.Transport.(*http.Transport)
	require.True(t, ok)
	require.NotNil(t, tr.TLSClientConfig)
	assert.Contains(t, tr.TLSClientConfig.NextProtos, "h2")
}
