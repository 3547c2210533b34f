// 版权所有 2024 embedgate Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 server 提供 HTTP 服务器生命周期管理，支持非阻塞启动与优雅关闭。

# 概述

Manager 封装 net/http.Server，统一管理监听、服务、关闭与错误传播。
embedgate 为 API 与 metrics 各创建一个实例，信号处理由 cmd/embedgate
统一负责。

# 主要能力

  - 非阻塞启动：Start 在返回前完成端口绑定，服务在后台 goroutine 运行。
  - 优雅关闭：Shutdown 在配置的超时内排空请求，重复调用为空操作。
  - 错误传播：Errors() 返回异步错误通道。
  - 地址查询：ListenAddr 返回实际绑定地址，便于使用随机端口测试。
*/
package server
