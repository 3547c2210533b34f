// Package tlsutil 提供集中式的出站 TLS 配置，
// 供 OpenAI HTTP 客户端与 Qdrant gRPC 连接共用（TLS 1.2+，仅 AEAD 密码套件）。
package tlsutil
