package llm

// Usage 一次补全的 token 用量
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionResult 补全结果：第一个候选的文本与用量
type CompletionResult struct {
	Response string `json:"response"`
	Usage    Usage  `json:"usage"`
}
