// =============================================================================
// embedgate 主入口
// =============================================================================
// 嵌入 / 对话网关服务入口，包含 HTTP 服务、健康检查、Prometheus 指标
//
// 使用方法:
//
//	embedgate serve                              # 启动服务
//	embedgate serve --config config.yaml         # 指定配置文件
//	embedgate ingest --id 1 --text "hello"       # 向量化文本并写入 Qdrant
//	embedgate ingest --id 1 --file docs.jsonl    # 逐条写入文件中的文档
//	embedgate version                            # 显示版本信息
//	embedgate health --addr http://127.0.0.1:3000  # 健康检查
// =============================================================================

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/embedgate/config"
	"github.com/BaSui01/embedgate/internal/state"
	"github.com/BaSui01/embedgate/internal/telemetry"
	"github.com/BaSui01/embedgate/rag"
	"github.com/BaSui01/embedgate/rag/loader"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// =============================================================================
// 🎯 主函数
// =============================================================================

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(os.Args[2:])
	case "ingest":
		err = runIngest(os.Args[2:])
	case "version":
		printVersion(os.Stdout)
	case "health":
		err = runHealthCheck(os.Args[2:])
	case "help", "-h", "--help":
		printUsage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage(os.Stderr)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "embedgate %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

// loadConfig 加载并验证配置。.env.local 优先于 .env，两者都不覆盖已有环境变量
func loadConfig(path string) (*config.Config, error) {
	loader := config.NewLoader().WithDotEnv(".env.local", ".env")
	if path != "" {
		loader = loader.WithConfigPath(path)
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// 🖥️ serve 命令
// =============================================================================

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	_ = fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	logger := initLogger(cfg.Log)
	defer func() { _ = logger.Sync() }()

	logger.Info("starting embedgate",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	ctx := context.Background()

	otelProviders, err := telemetry.Init(ctx, cfg.Telemetry, Version, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}

	app, err := state.Build(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to build application state: %w", err)
	}

	srv := NewServer(app, otelProviders, logger)
	if err := srv.Start(); err != nil {
		_ = app.Close()
		return err
	}

	waitErr := srv.Wait(ctx)
	if waitErr != nil {
		logger.Error("server failed", zap.Error(waitErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && waitErr == nil {
		return err
	}

	logger.Info("embedgate stopped")
	return waitErr
}

// =============================================================================
// 📥 ingest 命令
// =============================================================================

func runIngest(args []string) error {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	id := fs.Uint64("id", 0, "Point id; with --file, the first id assigned to documents without one")
	text := fs.String("text", "", "Text to embed and store")
	file := fs.String("file", "", "File to load (.txt, .md, .json, .jsonl)")
	_ = fs.Parse(args)

	if (*text == "") == (*file == "") {
		return fmt.Errorf("exactly one of --text or --file is required")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	logger := initLogger(cfg.Log)
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	docs := []rag.Document{{ID: *id, Text: *text}}
	if *file != "" {
		docs, err = loader.NewRegistry(loader.Options{FirstID: *id}).Load(ctx, *file)
		if err != nil {
			return err
		}
	}

	app, err := state.Build(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to build application state: %w", err)
	}
	defer func() { _ = app.Close() }()

	for _, doc := range docs {
		docCtx, cancel := context.WithTimeout(ctx, cfg.OpenAI.Timeout+cfg.Qdrant.Timeout)
		err := ingestDocument(docCtx, app, doc)
		cancel()
		if err != nil {
			return fmt.Errorf("document %d: %w", doc.ID, err)
		}
		logger.Info("document ingested",
			zap.Uint64("id", doc.ID),
			zap.String("collection", cfg.Qdrant.Collection),
		)
	}

	logger.Info("ingest finished", zap.Int("documents", len(docs)))
	return nil
}

// ingestDocument 向量化文档文本并写入向量库
func ingestDocument(ctx context.Context, app *state.App, doc rag.Document) error {
	embedding, err := app.LLM.Embed(ctx, doc.Text)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	doc.Embedding = embedding
	if err := app.Store.Upsert(ctx, doc); err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	return nil
}

// =============================================================================
// 🏥 健康检查命令
// =============================================================================

func runHealthCheck(args []string) error {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	addr := fs.String("addr", "http://127.0.0.1:3000", "Server address")
	_ = fs.Parse(args)

	if err := checkHealth(&http.Client{Timeout: 5 * time.Second}, *addr); err != nil {
		return err
	}
	fmt.Println("OK")
	return nil
}

func checkHealth(client *http.Client, addr string) error {
	resp, err := client.Get(addr + "/health")
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed: status %d", resp.StatusCode)
	}
	return nil
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "embedgate %s\n", Version)
	fmt.Fprintf(w, "  Build Time: %s\n", BuildTime)
	fmt.Fprintf(w, "  Git Commit: %s\n", GitCommit)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `embedgate - embedding and chat gateway

Usage:
  embedgate <command> [options]

Commands:
  serve     Start the gateway
  ingest    Embed a text and upsert it into the vector collection
  version   Show version information
  health    Check server health
  help      Show this help message

Options for 'serve':
  --config <path>   Path to configuration file (YAML)

Options for 'ingest':
  --config <path>   Path to configuration file (YAML)
  --id <n>          Point id (first id for --file)
  --text <text>     Text to embed
  --file <path>     .txt/.md (one document per paragraph) or .json/.jsonl

Environment:
  API_KEY, OPENAI_API_KEY          required
  QDRANT_URL, QDRANT_API_KEY       vector database
  COLLECTION_NAME                  collection (default: documents)
  EMBEDGATE_<SECTION>_<FIELD>      any other setting

Examples:
  embedgate serve
  embedgate serve --config /etc/embedgate/config.yaml
  embedgate ingest --id 7 --text "hello world"
  embedgate health --addr http://127.0.0.1:3000
  embedgate version`)
}

// =============================================================================
// 🔧 日志初始化
// =============================================================================

func initLogger(cfg config.LogConfig) *zap.Logger {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	encoding := "json"
	if cfg.Format == "console" {
		encoding = "console"
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      encoding == "console",
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{"stderr"},
	}

	opts := []zap.Option{zap.AddStacktrace(zapcore.ErrorLevel)}
	if cfg.EnableCaller {
		opts = append(opts, zap.AddCaller())
	}

	logger, err := zapConfig.Build(opts...)
	if err != nil {
		// 回退到基本 logger
		logger, _ = zap.NewProduction()
	}
	return logger
}
