package llm

import (
	"context"
	"errors"
)

// Embedder 将一段文本转换为向量
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Completer 对单条用户消息生成一次补全
type Completer interface {
	Complete(ctx context.Context, message string) (*CompletionResult, error)
}

// Client 是网关使用的语言模型能力集合，实现必须可并发使用
type Client interface {
	Embedder
	Completer
}

// Gateway composes an Embedder and a Completer into a Client, so the
// embedding backend (OpenAI or Bedrock) can be chosen independently.
type Gateway struct {
	embedder  Embedder
	completer Completer
}

// NewGateway 组合向量化与补全后端
func NewGateway(embedder Embedder, completer Completer) (*Gateway, error) {
	if embedder == nil {
		return nil, errors.New("llm: embedder is required")
	}
	if completer == nil {
		return nil, errors.New("llm: completer is required")
	}
	return &Gateway{embedder: embedder, completer: completer}, nil
}

// Embed 委托给向量化后端
func (g *Gateway) Embed(ctx context.Context, text string) ([]float32, error) {
	return g.embedder.Embed(ctx, text)
}

// Complete 委托给补全后端
func (g *Gateway) Complete(ctx context.Context, message string) (*CompletionResult, error) {
	return g.completer.Complete(ctx, message)
}

var _ Client = (*Gateway)(nil)
