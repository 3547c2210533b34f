package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/BaSui01/embedgate/api/handlers"
	"github.com/BaSui01/embedgate/config"
	"github.com/BaSui01/embedgate/internal/state"
	"github.com/BaSui01/embedgate/llm"
	"github.com/BaSui01/embedgate/rag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// =============================================================================
// 🧪 测试替身
// =============================================================================

type fakeClient struct {
	embedCalls atomic.Int64
	embedErr   error
}

func (f *fakeClient) Embed(_ context.Context, text string) ([]float32, error) {
	f.embedCalls.Add(1)
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	return []float32{float32(len(text)), 0.5}, nil
}

func (f *fakeClient) Complete(_ context.Context, msg string) (*llm.CompletionResult, error) {
	return &llm.CompletionResult{
		Response: "echo: " + msg,
		Usage:    llm.Usage{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3},
	}, nil
}

type fakeStore struct {
	mu       sync.Mutex
	docs     []rag.Document
	checkErr error
	closed   atomic.Bool
	resets   atomic.Int64
}

func (f *fakeStore) Upsert(_ context.Context, doc rag.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs = append(f.docs, doc)
	return nil
}

func (f *fakeStore) DeleteAll(context.Context) error {
	f.resets.Add(1)
	return nil
}

func (f *fakeStore) Count(context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return uint64(len(f.docs)), nil
}

func (f *fakeStore) Check(context.Context) error { return f.checkErr }

func (f *fakeStore) Close() error {
	f.closed.Store(true)
	return nil
}

func newTestServer(t *testing.T, mutate func(*config.Config)) (*Server, *fakeClient, *fakeStore) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Gateway.APIKey = testAPIKey
	cfg.OpenAI.APIKey = "sk-test"
	cfg.Server.Addr = "127.0.0.1:0"
	cfg.Server.MetricsAddr = "127.0.0.1:0"
	if mutate != nil {
		mutate(cfg)
	}

	client := &fakeClient{}
	store := &fakeStore{}
	app, err := state.New(cfg, client, store)
	require.NoError(t, err)

	return NewServer(app, nil, zap.NewNop()), client, store
}

func doRequest(h http.Handler, method, path, body string, authed bool) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("X-API-Key", testAPIKey)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// =============================================================================
// 🧪 路由
// =============================================================================

func TestServer_EmbedThroughChain(t *testing.T) {
	s, client, _ := newTestServer(t, nil)
	h := s.Handler()

	w := doRequest(h, http.MethodPost, "/api/embed", `{"text":"hello"}`, true)
	require.Equal(t, http.StatusOK, w.Code)

	var env handlers.Envelope[[]float32]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, handlers.StatusSuccess, env.Status)
	assert.Equal(t, []float32{5, 0.5}, env.Data)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, int64(1), client.embedCalls.Load())
}

func TestServer_UnauthenticatedNeverReachesUpstream(t *testing.T) {
	s, client, store := newTestServer(t, nil)
	h := s.Handler()

	for _, path := range []string{"/api/embed", "/api/chat", "/api/reset"} {
		w := doRequest(h, http.MethodPost, path, `{"text":"x","message":"x"}`, false)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
	assert.Zero(t, client.embedCalls.Load())
	assert.Zero(t, store.resets.Load())
}

func TestServer_Reset(t *testing.T) {
	s, _, store := newTestServer(t, nil)

	w := doRequest(s.Handler(), http.MethodPost, "/api/reset", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"message":"Database reset successfully"},"status":"success"}`, w.Body.String())
	assert.Equal(t, int64(1), store.resets.Load())
}

func TestServer_ResetDisabled(t *testing.T) {
	s, _, store := newTestServer(t, func(c *config.Config) { c.Gateway.ResetEnabled = false })

	w := doRequest(s.Handler(), http.MethodPost, "/api/reset", "", true)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Zero(t, store.resets.Load())
}

func TestServer_MethodNotAllowed(t *testing.T) {
	s, client, _ := newTestServer(t, nil)

	w := doRequest(s.Handler(), http.MethodGet, "/api/embed", "", true)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Zero(t, client.embedCalls.Load())
}

func TestServer_UnroutedPathsNotFoundWithoutKey(t *testing.T) {
	s, client, store := newTestServer(t, func(c *config.Config) { c.Gateway.ResetEnabled = false })
	h := s.Handler()

	assert.Equal(t, http.StatusNotFound, doRequest(h, http.MethodGet, "/nope", "", false).Code)
	assert.Equal(t, http.StatusNotFound, doRequest(h, http.MethodPost, "/api/unknown", `{"text":"x"}`, false).Code)
	assert.Equal(t, http.StatusNotFound, doRequest(h, http.MethodPost, "/api/reset", "", false).Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(h, http.MethodPost, "/api/embed", `{"text":"x"}`, false).Code)
	assert.Zero(t, client.embedCalls.Load())
	assert.Zero(t, store.resets.Load())
}

func TestServer_HealthEndpointsSkipAuth(t *testing.T) {
	s, _, store := newTestServer(t, nil)
	h := s.Handler()

	assert.Equal(t, http.StatusOK, doRequest(h, http.MethodGet, "/health", "", false).Code)
	assert.Equal(t, http.StatusOK, doRequest(h, http.MethodGet, "/healthz", "", false).Code)
	assert.Equal(t, http.StatusOK, doRequest(h, http.MethodGet, "/ready", "", false).Code)

	store.checkErr = errors.New("qdrant down")
	assert.Equal(t, http.StatusServiceUnavailable, doRequest(h, http.MethodGet, "/readyz", "", false).Code)

	w := doRequest(h, http.MethodGet, "/version", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"version":"dev"`)
}

// =============================================================================
// 🧪 生命周期
// =============================================================================

func TestServer_StartAndShutdown(t *testing.T) {
	s, _, store := newTestServer(t, nil)

	require.NoError(t, s.Start())

	resp, err := http.Get("http://" + s.httpManager.ListenAddr() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NotNil(t, s.metricsManager)
	resp, err = http.Get("http://" + s.metricsManager.ListenAddr() + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "embedgate_http_requests_total")

	require.NoError(t, s.Shutdown(context.Background()))
	assert.True(t, store.closed.Load())
	assert.False(t, s.httpManager.IsRunning())
	assert.False(t, s.metricsManager.IsRunning())
}

func TestServer_MetricsDisabled(t *testing.T) {
	s, _, _ := newTestServer(t, func(c *config.Config) { c.Server.MetricsEnabled = false })

	require.NoError(t, s.Start())
	assert.Nil(t, s.metricsManager)
	require.NoError(t, s.Shutdown(context.Background()))
}

func TestServer_WaitReturnsOnContextCancel(t *testing.T) {
	s, _, _ := newTestServer(t, nil)
	require.NoError(t, s.Start())
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, s.Wait(ctx))
}

// =============================================================================
// 🧪 子命令辅助
// =============================================================================

func TestIngestDocument(t *testing.T) {
	s, _, store := newTestServer(t, nil)

	require.NoError(t, ingestDocument(context.Background(), s.app, rag.Document{ID: 42, Text: "hello world"}))

	require.Len(t, store.docs, 1)
	assert.Equal(t, uint64(42), store.docs[0].ID)
	assert.Equal(t, "hello world", store.docs[0].Text)
	assert.Equal(t, []float32{11, 0.5}, store.docs[0].Embedding)
}

func TestIngestDocument_EmbedFailure(t *testing.T) {
	s, client, store := newTestServer(t, nil)
	client.embedErr = errors.New("openai down")

	err := ingestDocument(context.Background(), s.app, rag.Document{ID: 1, Text: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embed")
	assert.Empty(t, store.docs)
}

func TestCheckHealth(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
	}))
	defer ok.Close()
	assert.NoError(t, checkHealth(ok.Client(), ok.URL))

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()
	err := checkHealth(down.Client(), down.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestPrintVersion(t *testing.T) {
	var buf bytes.Buffer
	printVersion(&buf)
	assert.Contains(t, buf.String(), "embedgate dev")
	assert.Contains(t, buf.String(), "Git Commit: unknown")
}

func TestInitLogger(t *testing.T) {
	logger := initLogger(config.LogConfig{Level: "debug", Format: "console", OutputPaths: []string{"stderr"}})
	require.NotNil(t, logger)
	assert.True(t, logger.Core().Enabled(-1))

	logger = initLogger(config.LogConfig{Level: "bogus", Format: "json"})
	assert.False(t, logger.Core().Enabled(-1))
}
