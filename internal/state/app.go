// Package state holds the application context shared by every request.
package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/BaSui01/embedgate/config"
	"github.com/BaSui01/embedgate/llm"
	"github.com/BaSui01/embedgate/llm/bedrock"
	"github.com/BaSui01/embedgate/rag"
	"go.uber.org/zap"
)

// App 在启动时构造一次，之后只读共享
type App struct {
	Config *config.Config
	LLM    llm.Client
	Store  rag.Store
}

// New 组装已构造好的依赖
func New(cfg *config.Config, client llm.Client, store rag.Store) (*App, error) {
	if cfg == nil {
		return nil, errors.New("state: config is required")
	}
	if client == nil {
		return nil, errors.New("state: llm client is required")
	}
	if store == nil {
		return nil, errors.New("state: vector store is required")
	}
	return &App{Config: cfg, LLM: client, Store: store}, nil
}

// Build 根据配置创建 OpenAI / Bedrock 客户端与 Qdrant 存储
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	openaiClient := llm.NewOpenAIClient(cfg.OpenAI, logger)

	var embedder llm.Embedder = openaiClient
	if cfg.Embedding.Provider == config.EmbeddingProviderBedrock {
		titan, err := bedrock.NewTitanEmbedder(ctx, cfg.Embedding.Bedrock, logger)
		if err != nil {
			return nil, fmt.Errorf("bedrock embedder: %w", err)
		}
		embedder = titan
	}

	client, err := llm.NewGateway(embedder, openaiClient)
	if err != nil {
		return nil, err
	}

	store, err := rag.NewQdrantStore(cfg.Qdrant, logger)
	if err != nil {
		return nil, fmt.Errorf("qdrant store: %w", err)
	}

	logger.Info("application state built",
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("chat_model", cfg.OpenAI.ChatModel),
		zap.String("collection", cfg.Qdrant.Collection),
	)
	return New(cfg, client, store)
}

// Close 释放向量库连接
func (a *App) Close() error {
	return a.Store.Close()
}
