// Copyright (c) embedgate Authors.
// Licensed under the MIT License.

/*
Package handlers 提供 embedgate HTTP API 的请求处理器实现。

# 概述

handlers 包实现 /api/embed、/api/chat、/api/reset 以及健康检查端点。
所有 Handler 均遵循标准 net/http 接口，鉴权与日志由 cmd/embedgate 的
中间件链负责。

# 核心类型

  - GatewayHandler: embed / chat / reset 三个端点
  - HealthHandler: /health、/healthz、/ready、/readyz、/version
  - Envelope[T]: 统一响应信封，只能通过 Success / Failure 构造
  - ResponseWriter: 包装 http.ResponseWriter 以捕获状态码

# 错误约定

字段为空时返回 HTTP 200 的错误信封；请求体无法解析时返回 400、413 或
415；上游失败返回不带信封的 500，原因只写入日志。
*/
package handlers
