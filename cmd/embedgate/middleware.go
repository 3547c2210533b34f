package main

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/BaSui01/embedgate/api/handlers"
	"github.com/BaSui01/embedgate/internal/ctxkeys"
	"github.com/BaSui01/embedgate/internal/metrics"
	"github.com/BaSui01/embedgate/internal/telemetry"
	"github.com/BaSui01/embedgate/types"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	headerAPIKey    = "X-API-Key"
	headerRequestID = "X-Request-ID"
)

// RequestIDFromContext extracts the request ID from the context.
// Returns an empty string if no request ID is present.
func RequestIDFromContext(ctx context.Context) string {
	return ctxkeys.RequestID(ctx)
}

// Middleware 类型定义
type Middleware func(http.Handler) http.Handler

// Chain 将多个中间件串联，第一个位于最外层
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// Recovery panic 恢复中间件
func Recovery(logger *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Error("panic recovered",
						zap.Any("panic", rec),
						zap.String("path", r.URL.Path),
						zap.String("request_id", RequestIDFromContext(r.Context())),
						zap.Stack("stack"),
					)
					handlers.WriteError(w, types.NewError(types.ErrInternalError, "internal server error"), nil)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RequestID 为每个请求分配 X-Request-ID（客户端提供时沿用）并写入 context
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(headerRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(headerRequestID, id)
			ctx := ctxkeys.WithRequestID(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestLogger 请求日志与计时中间件。
// 位于鉴权之外，因此每个请求（包括 401）恰好记录一次；2xx 为 Info，其余为 Error。
// 下游 panic 时按 500 记录后继续向外抛出。
func RequestLogger(logger *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := RequestIDFromContext(r.Context())
			logger.Info("incoming request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("request_id", requestID),
			)

			start := time.Now()
			rw := handlers.NewResponseWriter(w)
			defer func() {
				rec := recover()
				status := rw.StatusCode
				if rec != nil {
					status = http.StatusInternalServerError
				}

				fields := []zap.Field{
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", status),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", requestID),
					zap.String("remote_addr", r.RemoteAddr),
				}
				if rec == nil && status >= 200 && status < 300 {
					logger.Info("request completed", fields...)
				} else {
					logger.Error("request failed", fields...)
				}

				if rec != nil {
					panic(rec)
				}
			}()

			next.ServeHTTP(rw, r)
		})
	}
}

// =============================================================================
// MetricsMiddleware
// =============================================================================

// metricsResponseWriter 捕获状态码与响应体大小
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode   int
	wroteHeader  bool
	bytesWritten int64
}

func (w *metricsResponseWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.statusCode = code
		w.wroteHeader = true
		w.ResponseWriter.WriteHeader(code)
	}
}

func (w *metricsResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytesWritten += int64(n)
	return n, err
}

// MetricsMiddleware 通过 metrics.Collector 记录 HTTP 请求指标
func MetricsMiddleware(collector *metrics.Collector) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			mrw := &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(mrw, r)

			collector.RecordHTTPRequest(r.Method, routeLabel(r.URL.Path), mrw.statusCode, time.Since(start), mrw.bytesWritten)
		})
	}
}

// routeLabel 把未知路径折叠为 "other"，限制 Prometheus 标签基数
func routeLabel(path string) string {
	switch path {
	case "/health", "/healthz", "/ready", "/readyz", "/version",
		"/api/embed", "/api/chat", "/api/reset":
		return path
	}
	return "other"
}

// =============================================================================
// OTelTracing
// =============================================================================

// OTelTracing 为每个请求创建 server span，并从请求头提取上游 trace context
func OTelTracing() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

			ctx, span := telemetry.Tracer().Start(ctx, r.Method+" "+routeLabel(r.URL.Path),
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.URLPath(r.URL.Path),
					attribute.String("request.id", RequestIDFromContext(r.Context())),
				),
			)
			defer span.End()

			rw := handlers.NewResponseWriter(w)
			next.ServeHTTP(rw, r.WithContext(ctx))

			span.SetAttributes(semconv.HTTPResponseStatusCode(rw.StatusCode))
			if rw.StatusCode >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(rw.StatusCode))
			}
		})
	}
}

// =============================================================================
// APIKeyAuth
// =============================================================================

// AuthRejectionRecorder 记录被拒绝的鉴权（由 metrics.Collector 实现）
type AuthRejectionRecorder interface {
	RecordAuthRejection()
}

// APIKeyAuth 校验 X-API-Key 请求头。
// 比较为区分大小写的精确匹配，以常数时间完成；skipPaths 中的路径不需要认证。
// 失败时返回裸 401，不执行任何处理逻辑。
func APIKeyAuth(apiKey string, skipPaths []string, recorder AuthRejectionRecorder, logger *zap.Logger) Middleware {
	expected := []byte(apiKey)
	skipSet := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skipSet[p] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, skip := skipSet[r.URL.Path]; skip {
				next.ServeHTTP(w, r)
				return
			}

			provided := r.Header.Get(headerAPIKey)
			if len(expected) == 0 || subtle.ConstantTimeCompare([]byte(provided), expected) != 1 {
				logger.Warn("authentication failed",
					zap.String("path", r.URL.Path),
					zap.Bool("key_present", provided != ""),
					zap.String("request_id", RequestIDFromContext(r.Context())),
				)
				if recorder != nil {
					recorder.RecordAuthRejection()
				}
				handlers.WriteStatus(w, http.StatusUnauthorized)
				return
			}

			logger.Info("request authenticated",
				zap.String("path", r.URL.Path),
				zap.String("request_id", RequestIDFromContext(r.Context())),
			)
			next.ServeHTTP(w, r)
		})
	}
}

// SecurityHeaders adds common security response headers to every request.
func SecurityHeaders() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("Referrer-Policy", "no-referrer")
			w.Header().Set("Content-Security-Policy", "default-src 'none'")
			next.ServeHTTP(w, r)
		})
	}
}
