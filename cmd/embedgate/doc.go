// Copyright (c) embedgate Authors.
// Licensed under the MIT License.

/*
Package main 提供 embedgate 网关程序入口。

# 概述

cmd/embedgate 是网关的可执行入口，提供 HTTP API 服务、文档写入、
健康检查和版本查询等子命令。配置来自默认值、YAML 文件、.env 与环境变量，
日志使用 zap，指标通过独立端口暴露给 Prometheus。

# 核心类型

  - Server      主服务器，管理 API 与 metrics 双端口及优雅关闭
  - Middleware  HTTP 中间件函数签名 func(http.Handler) http.Handler

# 主要能力

  - 子命令：serve、ingest、version、health
  - 中间件链（外到内）：RequestID、RequestLogger、Recovery、OTelTracing、
    MetricsMiddleware、SecurityHeaders；APIKeyAuth 只挂在 /api 路由上
  - 路由：POST /api/embed、POST /api/chat、POST /api/reset（可关闭），
    以及免鉴权的 /health、/healthz、/ready、/readyz、/version；未注册路径返回 404
  - 优雅关闭：信号或服务器错误触发，并发关闭两个端口后释放 Qdrant 连接
  - 构建注入：Version、BuildTime、GitCommit 通过 ldflags 设置
*/
package main
