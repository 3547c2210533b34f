package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/BaSui01/embedgate/api/handlers"
	"github.com/BaSui01/embedgate/config"
	"github.com/BaSui01/embedgate/internal/metrics"
	"github.com/BaSui01/embedgate/internal/server"
	"github.com/BaSui01/embedgate/internal/state"
	"github.com/BaSui01/embedgate/internal/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// =============================================================================
// 🖥️ Server 结构
// =============================================================================

// Server 是 embedgate 的主服务器，持有 API 与 metrics 两个监听端口
type Server struct {
	cfg       *config.Config
	app       *state.App
	telemetry *telemetry.Providers
	logger    *zap.Logger

	metricsCollector *metrics.Collector
	healthHandler    *handlers.HealthHandler
	gatewayHandler   *handlers.GatewayHandler

	httpManager    *server.Manager
	metricsManager *server.Manager
}

// NewServer 创建服务器实例并完成 handler 初始化；otelProviders 可以为 nil
func NewServer(app *state.App, otelProviders *telemetry.Providers, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:              app.Config,
		app:              app,
		telemetry:        otelProviders,
		logger:           logger,
		metricsCollector: metrics.NewCollector("embedgate", logger),
	}
	s.initHandlers()
	return s
}

// =============================================================================
// 🔧 初始化
// =============================================================================

func (s *Server) initHandlers() {
	s.healthHandler = handlers.NewHealthHandler(s.logger)
	s.healthHandler.RegisterCheck(handlers.NewFuncHealthCheck("qdrant", s.app.Store.Check))

	recorders := handlers.UpstreamRecorders{s.metricsCollector}
	if upstreamMeter, err := telemetry.NewUpstreamMeter(nil); err != nil {
		s.logger.Warn("otel upstream meter unavailable", zap.Error(err))
	} else {
		recorders = append(recorders, upstreamMeter)
	}
	s.gatewayHandler = handlers.NewGatewayHandler(s.app, recorders, s.logger)
}

// Handler 构建带完整中间件链的 API 路由
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// 健康检查
	mux.HandleFunc("GET /health", s.healthHandler.HandleHealth)
	mux.HandleFunc("GET /healthz", s.healthHandler.HandleHealth)
	mux.HandleFunc("GET /ready", s.healthHandler.HandleReady)
	mux.HandleFunc("GET /readyz", s.healthHandler.HandleReady)
	mux.HandleFunc("GET /version", s.healthHandler.HandleVersion(Version, BuildTime, GitCommit))

	// API 路由：鉴权只挂在已注册的路由上，未知路径直接 404
	auth := APIKeyAuth(s.cfg.Gateway.APIKey, nil, s.metricsCollector, s.logger.With(zap.String("component", "auth")))
	mux.Handle("POST /api/embed", auth(http.HandlerFunc(s.gatewayHandler.HandleEmbed)))
	mux.Handle("POST /api/chat", auth(http.HandlerFunc(s.gatewayHandler.HandleChat)))
	if s.cfg.Gateway.ResetEnabled {
		mux.Handle("POST /api/reset", auth(http.HandlerFunc(s.gatewayHandler.HandleReset)))
	} else {
		s.logger.Info("reset endpoint disabled")
	}

	return Chain(mux,
		RequestID(),
		RequestLogger(s.logger.With(zap.String("component", "http"))),
		Recovery(s.logger),
		OTelTracing(),
		MetricsMiddleware(s.metricsCollector),
		SecurityHeaders(),
	)
}

// =============================================================================
// 🚀 启动与运行
// =============================================================================

// Start 启动 API 与 metrics 服务器（非阻塞）
func (s *Server) Start() error {
	srvCfg := server.Config{
		Addr:            s.cfg.Server.Addr,
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     2 * s.cfg.Server.ReadTimeout,
		MaxHeaderBytes:  1 << 20,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}
	s.httpManager = server.NewManager("api", s.Handler(), srvCfg, s.logger)
	if err := s.httpManager.Start(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	if s.cfg.Server.MetricsEnabled {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", s.metricsCollector.Handler())

		metricsCfg := srvCfg
		metricsCfg.Addr = s.cfg.Server.MetricsAddr
		s.metricsManager = server.NewManager("metrics", mux, metricsCfg, s.logger)
		if err := s.metricsManager.Start(); err != nil {
			_ = s.httpManager.Shutdown(context.Background())
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
	}

	s.logger.Info("all servers started",
		zap.String("addr", s.httpManager.ListenAddr()),
		zap.String("metrics_addr", s.cfg.Server.MetricsAddr),
		zap.Bool("metrics_enabled", s.cfg.Server.MetricsEnabled),
		zap.Bool("reset_enabled", s.cfg.Gateway.ResetEnabled),
	)
	return nil
}

// Wait 阻塞直到收到 SIGINT/SIGTERM、ctx 结束或任一服务器异步出错
func (s *Server) Wait(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metricsErrs <-chan error
	if s.metricsManager != nil {
		metricsErrs = s.metricsManager.Errors()
	}

	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
		return nil
	case err := <-s.httpManager.Errors():
		return fmt.Errorf("api server: %w", err)
	case err := <-metricsErrs:
		return fmt.Errorf("metrics server: %w", err)
	}
}

// =============================================================================
// 🛑 关闭流程
// =============================================================================

// Shutdown 并发关闭两个服务器，然后释放向量库连接并刷新遥测
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("starting graceful shutdown")

	var g errgroup.Group
	for _, m := range []*server.Manager{s.httpManager, s.metricsManager} {
		if m == nil {
			continue
		}
		g.Go(func() error { return m.Shutdown(ctx) })
	}

	errs := []error{g.Wait()}
	if err := s.app.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close vector store: %w", err))
	}
	if err := s.telemetry.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}

	err := errors.Join(errs...)
	if err != nil {
		s.logger.Error("graceful shutdown finished with errors", zap.Error(err))
		return err
	}
	s.logger.Info("graceful shutdown completed")
	return nil
}
