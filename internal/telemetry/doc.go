// Package telemetry 封装 OpenTelemetry SDK 初始化，
// 为 embedgate 提供集中式的 TracerProvider 与 MeterProvider 配置。
// 禁用时使用 noop 实现，不连接任何外部服务。
// UpstreamMeter 在全局 MeterProvider 上记录上游调用次数与耗时。
package telemetry
