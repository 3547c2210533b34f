// 版权所有 2024 embedgate Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 llm 提供网关使用的语言模型接入层。

# 概述

上层 handler 只依赖 Client 接口：Embed 返回文本向量，Complete 返回
单轮对话补全与 token 用量。OpenAIClient 基于 go-openai 实现两者；
向量化也可以切换为 llm/bedrock 中的 Titan 模型，由 Gateway 组合。

# 核心接口

  - Embedder / Completer / Client
  - Gateway: 组合任意 Embedder 与 Completer
  - OpenAIClient: 使用 HTTP/2 连接复用的 OpenAI 实现

调用失败统一返回 types.ErrUpstreamError，不做重试。
*/
package llm
