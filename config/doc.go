// Package config 提供 embedgate 的配置管理功能。
//
// 配置按 默认值 → YAML 文件 → EMBEDGATE_* 环境变量 → 通用环境变量 的顺序合并，
// .env 文件只补充进程环境中缺失的变量。Validate 在缺少 API_KEY 或
// OPENAI_API_KEY 时返回 CONFIG 错误，serve 据此在监听端口前退出。
package config
