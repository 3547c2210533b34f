package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/BaSui01/embedgate/types"
	"go.uber.org/zap"
)

// =============================================================================
// 📦 统一响应信封
// =============================================================================

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope 统一 API 响应结构。
// 错误信封携带调用方给定的空 data（embed 为 []，chat 为 null），从不携带部分结果。
type Envelope[T any] struct {
	Data   T      `json:"data"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Success 构造成功信封
func Success[T any](data T) Envelope[T] {
	return Envelope[T]{Data: data, Status: StatusSuccess}
}

// Failure 构造错误信封，empty 是该端点约定的空 data
func Failure[T any](empty T, message string) Envelope[T] {
	return Envelope[T]{Data: empty, Status: StatusError, Error: message}
}

// =============================================================================
// 🎯 响应辅助函数
// =============================================================================

// WriteJSON 写入 JSON 响应
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)

	// 响应头已发出，编码失败时无法再改写状态码
	_ = json.NewEncoder(w).Encode(data)
}

// WriteStatus 写入只有状态码语义的响应（401、413、415、500 等），不携带信封
func WriteStatus(w http.ResponseWriter, status int) {
	http.Error(w, http.StatusText(status), status)
}

// WriteError 按 types.Error 的状态码写入裸状态响应，并记录原因
func WriteError(w http.ResponseWriter, err *types.Error, logger *zap.Logger) {
	status := err.Status()

	if logger != nil {
		fields := []zap.Field{
			zap.String("code", string(err.Code)),
			zap.String("message", err.Message),
			zap.Int("status", status),
		}
		if err.Provider != "" {
			fields = append(fields, zap.String("provider", err.Provider))
		}
		if err.Cause != nil {
			fields = append(fields, zap.NamedError("cause", err.Cause))
		}
		if status >= http.StatusInternalServerError {
			logger.Error("API error", fields...)
		} else {
			logger.Warn("API error", fields...)
		}
	}

	WriteStatus(w, status)
}

// =============================================================================
// 🛡️ 请求验证辅助函数
// =============================================================================

var errTrailingData = errors.New("unexpected data after JSON value")

// DecodeJSONBody 解码 JSON 请求体。
// 非 JSON Content-Type 返回 415，超过 maxBytes 返回 413，无法解析返回 400。
// 未知字段被忽略，缺失字段保留零值。失败时响应已写出。
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst any, maxBytes int64, logger *zap.Logger) error {
	if !isJSONContentType(r.Header.Get("Content-Type")) {
		apiErr := types.NewError(types.ErrInvalidRequest, "Content-Type must be application/json").
			WithHTTPStatus(http.StatusUnsupportedMediaType)
		WriteError(w, apiErr, logger)
		return apiErr
	}

	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}

	dec := json.NewDecoder(r.Body)
	err := dec.Decode(dst)
	if err == nil {
		// 请求体只能包含一个 JSON 值
		if extra := dec.Decode(&struct{}{}); !errors.Is(extra, io.EOF) {
			err = errTrailingData
			var maxErr *http.MaxBytesError
			if errors.As(extra, &maxErr) {
				err = extra
			}
		}
	}
	if err != nil {
		status := http.StatusBadRequest
		message := "invalid JSON body"
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			status = http.StatusRequestEntityTooLarge
			message = "request body too large"
		case errors.Is(err, io.EOF):
			message = "request body is empty"
		}
		apiErr := types.NewError(types.ErrInvalidRequest, message).
			WithCause(err).
			WithHTTPStatus(status)
		WriteError(w, apiErr, logger)
		return apiErr
	}

	return nil
}

func isJSONContentType(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json"
}

// =============================================================================
// 📊 响应包装器（用于捕获状态码）
// =============================================================================

// ResponseWriter 包装 http.ResponseWriter 以捕获状态码
type ResponseWriter struct {
	http.ResponseWriter
	StatusCode int
	Written    bool
}

// NewResponseWriter 创建新的 ResponseWriter
func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	return &ResponseWriter{
		ResponseWriter: w,
		StatusCode:     http.StatusOK,
	}
}

// WriteHeader 重写 WriteHeader 以捕获状态码
func (rw *ResponseWriter) WriteHeader(code int) {
	if !rw.Written {
		rw.StatusCode = code
		rw.Written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

// Write 重写 Write 以标记已写入
func (rw *ResponseWriter) Write(b []byte) (int, error) {
	if !rw.Written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// Unwrap 供 http.ResponseController 访问底层 writer
func (rw *ResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
