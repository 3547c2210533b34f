package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/BaSui01/embedgate/config"
	"github.com/BaSui01/embedgate/internal/tlsutil"
	"github.com/BaSui01/embedgate/types"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
)

const providerOpenAI = "openai"

// OpenAIClient implements Client with the OpenAI API.
type OpenAIClient struct {
	api            *openai.Client
	chatModel      string
	embeddingModel string
	temperature    float32
	logger         *zap.Logger
}

// NewOpenAIClient 根据配置创建 OpenAI 客户端，BaseURL 为空时使用官方地址
func NewOpenAIClient(cfg config.OpenAIConfig, logger *zap.Logger) *OpenAIClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		oc.BaseURL = base
	}
	oc.HTTPClient = newHTTPClient(cfg.Timeout, logger)

	return &OpenAIClient{
		api:            openai.NewClientWithConfig(oc),
		chatModel:      cfg.ChatModel,
		embeddingModel: cfg.EmbeddingModel,
		temperature:    cfg.Temperature,
		logger:         logger.With(zap.String("component", "openai_client")),
	}
}

// newHTTPClient 启用 HTTP/2 的连接复用客户端
func newHTTPClient(timeout time.Duration, logger *zap.Logger) *http.Client {
	tr := tlsutil.SecureTransport(16)
	if err := http2.ConfigureTransport(tr); err != nil {
		logger.Warn("http2 transport unavailable, using http/1.1", zap.Error(err))
	}
	return &http.Client{Timeout: timeout, Transport: tr}
}

// Embed returns the embedding of text as produced by the configured model.
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(c.embeddingModel),
	})
	if err != nil {
		return nil, c.upstreamError("create embedding", err)
	}
	if len(resp.Data) == 0 {
		return nil, types.NewUpstreamError(providerOpenAI, "embedding response has no data", nil)
	}
	return resp.Data[0].Embedding, nil
}

// Complete sends message as a single user turn and returns the first choice.
func (c *OpenAIClient) Complete(ctx context.Context, message string) (*CompletionResult, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
		Temperature: c.temperature,
	})
	if err != nil {
		return nil, c.upstreamError("create chat completion", err)
	}
	if len(resp.Choices) == 0 {
		return nil, types.NewUpstreamError(providerOpenAI, "chat completion has no choices", nil)
	}

	return &CompletionResult{
		Response: resp.Choices[0].Message.Content,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

func (c *OpenAIClient) upstreamError(op string, err error) *types.Error {
	fields := []zap.Field{zap.String("operation", op), zap.Error(err)}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		fields = append(fields, zap.Int("upstream_status", apiErr.HTTPStatusCode))
	}
	c.logger.Debug("openai call failed", fields...)
	return types.NewUpstreamError(providerOpenAI, op, err)
}

var _ Client = (*OpenAIClient)(nil)
