package api

// =============================================================================
// 请求类型
// =============================================================================

// EmbeddingRequest 是 POST /api/embed 的请求体。
// @Description 向量化请求
type EmbeddingRequest struct {
	// 待向量化的原始文本（不会被 trim）
	Text string `json:"text" example:"The quick brown fox"`
}

// MessageRequest 是 POST /api/chat 的请求体。
// @Description 单轮对话请求
type MessageRequest struct {
	// 用户消息
	Message string `json:"message" example:"Hello"`
}

// =============================================================================
// 响应类型
// =============================================================================

// Usage token 用量
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResult 是对话成功信封中的 data。
// @Description 对话结果
type ChatResult struct {
	// 模型回复
	Message string `json:"message" example:"Hi there"`
	// token 用量
	Usage Usage `json:"usage"`
}

// ResetResult 是重置成功信封中的 data。
type ResetResult struct {
	Message string `json:"message" example:"Database reset successfully"`
}

// VersionInfo /version 返回的构建信息
type VersionInfo struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
	GitCommit string `json:"git_commit"`
}
