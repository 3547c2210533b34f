// Copyright (c) embedgate Authors.
// Licensed under the MIT License.

/*
# 概述

Package rag 封装 embedgate 与 Qdrant 向量库之间的交互。

# 核心接口/类型

  - Store: 向量库统一接口（Upsert / DeleteAll / Count / Check / Close）
  - QdrantStore: 基于官方 gRPC 客户端的实现，可在首次写入时自动建集合
  - Document: 写入向量库的记录（数值 ID、文本、向量）
  - Endpoint: 从 QDRANT_URL 推导出的 gRPC 连接参数

# 主要能力

  - JSON → Qdrant 值转换：ValueFromJSON 对任意输入都返回结果，整数保持为整数
  - 反向转换：ValueToJSON，用于读取 payload 与往返测试
  - PayloadFromDocument：剔除 embedding 字段后生成 payload

子包 loader 把本地 .txt/.md/.json/.jsonl 文件读成 Document，供 ingest 命令使用。
*/
package rag
