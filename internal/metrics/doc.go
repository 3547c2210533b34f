// 版权所有 2024 embedgate Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 提供基于 Prometheus 的指标采集。

# 概述

Collector 持有独立的 Registry（附带 Go 运行时与进程指标），通过
Handler 暴露给独立端口上的 /metrics。

# 主要能力

  - HTTP 指标：请求总数、耗时、响应大小，按 method/path/status 分组，
    状态码归类为 2xx/3xx/4xx/5xx。
  - 鉴权指标：被拒绝的请求数。
  - 上游指标：embed / chat / reset 调用次数与耗时，按成功与失败分组。
*/
package metrics
