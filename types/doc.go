// Copyright (c) embedgate Authors.
// Licensed under the MIT License.

/*
Package types 提供 embedgate 各层共享的错误类型定义。

# 概述

types 是最底层的公共包，不依赖任何内部包。config、llm、rag 与
api/handlers 通过同一套 ErrorCode 描述失败，HTTP 边界再据此决定
返回结构化信封还是裸状态码。

# 核心类型

  - ErrorCode: AUTHENTICATION / INVALID_REQUEST / UPSTREAM_ERROR / CONFIG / INTERNAL_ERROR
  - Error    : 结构化错误，含 HTTP 状态码、上游 Provider 与原始 Cause

# 主要能力

  - 链式构造：NewError(...).WithCause(...).WithHTTPStatus(...)
  - 常用构造：NewUpstreamError / NewConfigError
  - 错误解析：AsError / GetErrorCode / IsErrorCode（支持 %w 包装链）
*/
package types
