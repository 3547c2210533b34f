package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/BaSui01/embedgate/api"
	"github.com/BaSui01/embedgate/internal/ctxkeys"
	"github.com/BaSui01/embedgate/internal/state"
	"github.com/BaSui01/embedgate/types"
	"go.uber.org/zap"
)

// =============================================================================
// 🚪 网关 Handler
// =============================================================================

const (
	msgEmptyText    = "Text cannot be empty"
	msgEmptyMessage = "Message cannot be empty"
	msgResetDone    = "Database reset successfully"
)

// UpstreamRecorder 记录上游调用结果（metrics.Collector 与 telemetry.UpstreamMeter 均实现）
type UpstreamRecorder interface {
	RecordUpstreamCall(ctx context.Context, operation string, success bool, duration time.Duration)
}

// UpstreamRecorders 将一次上游调用分发给多个 recorder，nil 元素被跳过
type UpstreamRecorders []UpstreamRecorder

func (rs UpstreamRecorders) RecordUpstreamCall(ctx context.Context, operation string, success bool, duration time.Duration) {
	for _, r := range rs {
		if r != nil {
			r.RecordUpstreamCall(ctx, operation, success, duration)
		}
	}
}

// GatewayHandler 处理 embed / chat / reset 三个端点
type GatewayHandler struct {
	app      *state.App
	maxBody  int64
	recorder UpstreamRecorder
	logger   *zap.Logger
}

// NewGatewayHandler 创建网关处理器，recorder 可以为 nil
func NewGatewayHandler(app *state.App, recorder UpstreamRecorder, logger *zap.Logger) *GatewayHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GatewayHandler{
		app:      app,
		maxBody:  app.Config.Server.MaxBodyBytes,
		recorder: recorder,
		logger:   logger.With(zap.String("component", "gateway_handler")),
	}
}

// observe 计时并记录一次上游调用
func (h *GatewayHandler) observe(ctx context.Context, operation string, fn func() error) error {
	start := time.Now()
	err := fn()
	if h.recorder != nil {
		h.recorder.RecordUpstreamCall(ctx, operation, err == nil, time.Since(start))
	}
	return err
}

// upstreamFailure 写出不带信封的 500，原因只进日志
func (h *GatewayHandler) upstreamFailure(w http.ResponseWriter, r *http.Request, operation string, err error) {
	if ctxErr := r.Context().Err(); ctxErr != nil {
		h.logger.Warn("request canceled during upstream call",
			zap.String("operation", operation),
			zap.Error(ctxErr))
	}
	apiErr := types.NewError(types.ErrUpstreamError, operation+" failed").
		WithCause(err).
		WithHTTPStatus(http.StatusInternalServerError)
	if e, ok := types.AsError(err); ok {
		apiErr.WithProvider(e.Provider)
	}
	// 上游返回的状态码（例如 OpenAI 的 401）不透传
	WriteError(w, apiErr, h.logger.With(zap.String("request_id", ctxkeys.RequestID(r.Context()))))
}

// HandleEmbed 处理 POST /api/embed
// @Summary 文本向量化
// @Tags 网关
// @Accept json
// @Produce json
// @Param request body api.EmbeddingRequest true "待向量化文本"
// @Success 200 {object} Envelope[[]float32]
// @Failure 400,401,413,415,500
// @Router /api/embed [post]
func (h *GatewayHandler) HandleEmbed(w http.ResponseWriter, r *http.Request) {
	var req api.EmbeddingRequest
	if err := DecodeJSONBody(w, r, &req, h.maxBody, h.logger); err != nil {
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		WriteJSON(w, http.StatusOK, Failure([]float32{}, msgEmptyText))
		return
	}

	var vec []float32
	err := h.observe(r.Context(), "embed", func() error {
		var err error
		vec, err = h.app.LLM.Embed(r.Context(), req.Text)
		return err
	})
	if err != nil {
		h.upstreamFailure(w, r, "embed", err)
		return
	}
	if vec == nil {
		vec = []float32{}
	}

	WriteJSON(w, http.StatusOK, Success(vec))
}

// HandleChat 处理 POST /api/chat
// @Summary 单轮对话
// @Tags 网关
// @Accept json
// @Produce json
// @Param request body api.MessageRequest true "用户消息"
// @Success 200 {object} Envelope[api.ChatResult]
// @Failure 400,401,413,415,500
// @Router /api/chat [post]
func (h *GatewayHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req api.MessageRequest
	if err := DecodeJSONBody(w, r, &req, h.maxBody, h.logger); err != nil {
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		WriteJSON(w, http.StatusOK, Failure[*api.ChatResult](nil, msgEmptyMessage))
		return
	}

	var result *api.ChatResult
	err := h.observe(r.Context(), "chat", func() error {
		res, err := h.app.LLM.Complete(r.Context(), req.Message)
		if err != nil {
			return err
		}
		result = &api.ChatResult{
			Message: res.Response,
			Usage: api.Usage{
				PromptTokens:     res.Usage.PromptTokens,
				CompletionTokens: res.Usage.CompletionTokens,
				TotalTokens:      res.Usage.TotalTokens,
			},
		}
		return nil
	})
	if err != nil {
		h.upstreamFailure(w, r, "chat", err)
		return
	}

	WriteJSON(w, http.StatusOK, Success(result))
}

// HandleReset 处理 POST /api/reset，删除集合中的全部点
// @Summary 清空向量集合
// @Tags 网关
// @Produce json
// @Success 200 {object} Envelope[api.ResetResult]
// @Failure 401,500
// @Router /api/reset [post]
func (h *GatewayHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	err := h.observe(r.Context(), "reset", func() error {
		return h.app.Store.DeleteAll(r.Context())
	})
	if err != nil {
		h.upstreamFailure(w, r, "reset", err)
		return
	}

	WriteJSON(w, http.StatusOK, Success(api.ResetResult{Message: msgResetDone}))
}
