// =============================================================================
// 📦 embedgate 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Server:    DefaultServerConfig(),
		Gateway:   DefaultGatewayConfig(),
		OpenAI:    DefaultOpenAIConfig(),
		Embedding: DefaultEmbeddingConfig(),
		Qdrant:    DefaultQdrantConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
	}
}

// DefaultServerConfig 返回默认服务器配置（仅监听回环地址）
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:            "127.0.0.1:3000",
		MetricsAddr:     "127.0.0.1:9091",
		MetricsEnabled:  true,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    2 * time.Minute,
		ShutdownTimeout: 15 * time.Second,
		MaxBodyBytes:    1 << 20,
	}
}

// DefaultGatewayConfig 返回默认网关配置
func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		APIKey:       "",
		ResetEnabled: true,
	}
}

// DefaultOpenAIConfig 返回默认 OpenAI 配置
func DefaultOpenAIConfig() OpenAIConfig {
	return OpenAIConfig{
		APIKey:         "",
		BaseURL:        "",
		ChatModel:      "gpt-4",
		EmbeddingModel: "text-embedding-3-large",
		Temperature:    0.7,
		Timeout:        2 * time.Minute,
	}
}

// DefaultEmbeddingConfig 返回默认 Embedding 后端配置
func DefaultEmbeddingConfig() EmbeddingConfig {
	return EmbeddingConfig{
		Provider: EmbeddingProviderOpenAI,
		Bedrock: BedrockConfig{
			Region:     "us-west-2",
			ModelID:    "amazon.titan-embed-text-v2:0",
			Dimensions: 1024,
		},
	}
}

// DefaultQdrantConfig 返回默认 Qdrant 配置
func DefaultQdrantConfig() QdrantConfig {
	return QdrantConfig{
		URL:                  "http://localhost:6333",
		APIKey:               "",
		Collection:           "documents",
		GRPCPort:             6334,
		AutoCreateCollection: true,
		Timeout:              0,
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:       "info",
		Format:      "json",
		OutputPaths: []string{"stdout"},
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "embedgate",
		SampleRate:   0.1,
	}
}
