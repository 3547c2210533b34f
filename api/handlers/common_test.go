package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/BaSui01/embedgate/api"
	"github.com/BaSui01/embedgate/types"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// =============================================================================
// 🧪 Common 函数测试
// =============================================================================

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusOK, map[string]string{"message": "hello"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.JSONEq(t, `{"message":"hello"}`, w.Body.String())
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        *types.Error
		wantStatus int
	}{
		{"authentication", types.NewError(types.ErrAuthentication, "missing key"), http.StatusUnauthorized},
		{"invalid request", types.NewError(types.ErrInvalidRequest, "bad"), http.StatusBadRequest},
		{"explicit status", types.NewError(types.ErrInvalidRequest, "big").WithHTTPStatus(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge},
		{"upstream", types.NewUpstreamError("openai", "down", errors.New("secret detail")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.err, zap.NewNop())

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, http.StatusText(tt.wantStatus)+"\n", w.Body.String())
			assert.NotContains(t, w.Body.String(), "secret detail")
		})
	}
}

func TestDecodeJSONBody(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		wantErr     bool
		wantStatus  int
		wantText    string
	}{
		{"valid", "application/json", `{"text":"hi"}`, false, http.StatusOK, "hi"},
		{"charset param", "application/json; charset=UTF-8", `{"text":"hi"}`, false, http.StatusOK, "hi"},
		{"unknown fields ignored", "application/json", `{"text":"hi","extra":[1,2]}`, false, http.StatusOK, "hi"},
		{"missing field", "application/json", `{}`, false, http.StatusOK, ""},
		{"malformed", "application/json", `{"text":}`, true, http.StatusBadRequest, ""},
		{"empty", "application/json", ``, true, http.StatusBadRequest, ""},
		{"trailing garbage", "application/json", `{"text":"hi"} trailing-garbage`, true, http.StatusBadRequest, ""},
		{"second value", "application/json", `{"text":"hi"}{"text":"again"}`, true, http.StatusBadRequest, ""},
		{"trailing whitespace", "application/json", "{\"text\":\"hi\"}\n\t ", false, http.StatusOK, "hi"},
		{"not json", "text/plain", `{"text":"hi"}`, true, http.StatusUnsupportedMediaType, ""},
		{"bad media type", "application/", `{"text":"hi"}`, true, http.StatusUnsupportedMediaType, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			r.Header.Set("Content-Type", tt.contentType)

			var dst api.EmbeddingRequest
			err := DecodeJSONBody(w, r, &dst, 1<<20, zap.NewNop())

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, types.IsErrorCode(err, types.ErrInvalidRequest))
				assert.Equal(t, tt.wantStatus, w.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantText, dst.Text)
		})
	}
}

func TestDecodeJSONBody_MaxBodySize(t *testing.T) {
	body := `{"text":"` + strings.Repeat("x", 128) + `"}`

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")

	var dst api.EmbeddingRequest
	err := DecodeJSONBody(w, r, &dst, 64, zap.NewNop())
	require.Error(t, err)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	require.NoError(t, DecodeJSONBody(w, r, &dst, 1024, zap.NewNop()))
}

func TestResponseWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := NewResponseWriter(rec)

	assert.Equal(t, http.StatusOK, rw.StatusCode)
	assert.False(t, rw.Written)

	rw.WriteHeader(http.StatusUnauthorized)
	rw.WriteHeader(http.StatusOK) // 第二次调用被忽略
	_, _ = rw.Write([]byte("x"))

	assert.Equal(t, http.StatusUnauthorized, rw.StatusCode)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Same(t, rec, rw.Unwrap())
}

// =============================================================================
// 🧪 信封不变量
// =============================================================================

func TestEnvelope_Shapes(t *testing.T) {
	raw, err := json.Marshal(Success([]float32{0.5}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[0.5],"status":"success"}`, string(raw))

	raw, err = json.Marshal(Failure([]float32{}, msgEmptyText))
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[],"status":"error","error":"Text cannot be empty"}`, string(raw))

	raw, err = json.Marshal(Failure[*api.ChatResult](nil, msgEmptyMessage))
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":null,"status":"error","error":"Message cannot be empty"}`, string(raw))
}

func TestEnvelope_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	decode := func(v any) map[string]any {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		var out map[string]any
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil
		}
		return out
	}

	properties.Property("success envelopes never carry an error field", prop.ForAll(
		func(vec []float32) bool {
			out := decode(Success(vec))
			_, hasError := out["error"]
			data, isList := out["data"].([]any)
			return out["status"] == StatusSuccess && !hasError && isList && len(data) == len(vec)
		},
		gen.SliceOf(gen.Float32Range(-1, 1)).SuchThat(func(v []float32) bool { return v != nil }),
	))

	properties.Property("embed failures carry an empty list and the message", prop.ForAll(
		func(msg string) bool {
			out := decode(Failure([]float32{}, msg))
			data, isList := out["data"].([]any)
			return out["status"] == StatusError && out["error"] == msg && isList && len(data) == 0
		},
		gen.Identifier(),
	))

	properties.Property("chat failures carry null data and the message", prop.ForAll(
		func(msg string) bool {
			out := decode(Failure[*api.ChatResult](nil, msg))
			data, present := out["data"]
			return out["status"] == StatusError && out["error"] == msg && present && data == nil
		},
		gen.Identifier(),
	))

	properties.TestingRun(t)
}
