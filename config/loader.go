// =============================================================================
// 📦 embedgate 配置加载器
// =============================================================================
// 统一配置加载，支持 .env + YAML 文件 + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithDotEnv(".env.local", ".env").
//	    WithConfigPath("config.yaml").
//	    WithValidator((*config.Config).Validate).
//	    Load()
//
// 配置优先级: 默认值 → YAML 文件 → EMBEDGATE_* 环境变量 → 通用环境变量
// （OPENAI_API_KEY / QDRANT_URL / QDRANT_API_KEY / COLLECTION_NAME / API_KEY）
// =============================================================================
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BaSui01/embedgate/types"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// 🎯 核心配置结构
// =============================================================================

// Config 是 embedgate 的完整配置结构
type Config struct {
	// Server 服务器配置
	Server ServerConfig `yaml:"server" env:"SERVER"`

	// Gateway 网关鉴权与功能开关
	Gateway GatewayConfig `yaml:"gateway" env:"GATEWAY"`

	// OpenAI 语言模型配置
	OpenAI OpenAIConfig `yaml:"openai" env:"OPENAI"`

	// Embedding 向量化后端选择
	Embedding EmbeddingConfig `yaml:"embedding" env:"EMBEDDING"`

	// Qdrant 向量存储配置
	Qdrant QdrantConfig `yaml:"qdrant" env:"QDRANT"`

	// Log 日志配置
	Log LogConfig `yaml:"log" env:"LOG"`

	// Telemetry 遥测配置
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	// 监听地址（host:port）
	Addr string `yaml:"addr" env:"ADDR"`
	// Metrics 监听地址
	MetricsAddr string `yaml:"metrics_addr" env:"METRICS_ADDR"`
	// 是否启动 Metrics 服务
	MetricsEnabled bool `yaml:"metrics_enabled" env:"METRICS_ENABLED"`
	// 读取超时
	ReadTimeout time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	// 写入超时
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	// 优雅关闭超时
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	// 请求体上限（字节）
	MaxBodyBytes int64 `yaml:"max_body_bytes" env:"MAX_BODY_BYTES"`
}

// GatewayConfig 网关配置
type GatewayConfig struct {
	// 调用方必须在 X-API-Key 中携带的密钥
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// 是否注册 /api/reset
	ResetEnabled bool `yaml:"reset_enabled" env:"RESET_ENABLED"`
}

// OpenAIConfig OpenAI 配置
type OpenAIConfig struct {
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// 基础 URL（可选，兼容 OpenAI 协议的代理）
	BaseURL        string  `yaml:"base_url" env:"BASE_URL"`
	ChatModel      string  `yaml:"chat_model" env:"CHAT_MODEL"`
	EmbeddingModel string  `yaml:"embedding_model" env:"EMBEDDING_MODEL"`
	Temperature    float32 `yaml:"temperature" env:"TEMPERATURE"`
	// 单次请求超时
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// Embedding 后端
const (
	EmbeddingProviderOpenAI  = "openai"
	EmbeddingProviderBedrock = "bedrock"
)

// EmbeddingConfig 向量化后端配置
type EmbeddingConfig struct {
	// openai | bedrock
	Provider string        `yaml:"provider" env:"PROVIDER"`
	Bedrock  BedrockConfig `yaml:"bedrock" env:"BEDROCK"`
}

// BedrockConfig AWS Bedrock Titan 配置，凭证走 AWS 默认凭证链
type BedrockConfig struct {
	Region     string `yaml:"region" env:"REGION"`
	ModelID    string `yaml:"model_id" env:"MODEL_ID"`
	Dimensions int    `yaml:"dimensions" env:"DIMENSIONS"`
}

// QdrantConfig Qdrant 向量存储配置
type QdrantConfig struct {
	// REST 风格地址，例如 http://localhost:6333
	URL string `yaml:"url" env:"URL"`
	// API Key（可选）
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// 集合名
	Collection string `yaml:"collection" env:"COLLECTION"`
	// URL 使用 REST 端口 6333 时改用的 gRPC 端口
	GRPCPort int `yaml:"grpc_port" env:"GRPC_PORT"`
	// 首次写入时集合不存在则创建
	AutoCreateCollection bool `yaml:"auto_create_collection" env:"AUTO_CREATE_COLLECTION"`
	// 单次 gRPC 调用超时，0 表示不设截止时间（沿用调用方 context）
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// 输出路径
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	// 是否启用调用者信息
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
	// 是否启用堆栈跟踪
	EnableStacktrace bool `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// TelemetryConfig 遥测配置
type TelemetryConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// OTLP 端点
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	// 服务名称
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	// 采样率
	SampleRate float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// =============================================================================
// 🔧 配置加载器
// =============================================================================

// wellKnownEnv 不带前缀的通用环境变量，优先级最高
var wellKnownEnv = []struct {
	name  string
	apply func(*Config, string)
}{
	{"OPENAI_API_KEY", func(c *Config, v string) { c.OpenAI.APIKey = v }},
	{"QDRANT_URL", func(c *Config, v string) { c.Qdrant.URL = v }},
	{"QDRANT_API_KEY", func(c *Config, v string) { c.Qdrant.APIKey = v }},
	{"COLLECTION_NAME", func(c *Config, v string) { c.Qdrant.Collection = v }},
	{"API_KEY", func(c *Config, v string) { c.Gateway.APIKey = v }},
}

// Loader 配置加载器（Builder 模式）
type Loader struct {
	configPath string
	envPrefix  string
	dotEnv     []string
	validators []func(*Config) error
}

// NewLoader 创建新的配置加载器
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "EMBEDGATE",
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath 设置配置文件路径
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix 设置环境变量前缀
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithDotEnv 设置要加载的 .env 文件，靠前的文件优先；不存在的文件会被跳过
func (l *Loader) WithDotEnv(files ...string) *Loader {
	l.dotEnv = append(l.dotEnv, files...)
	return l
}

// WithValidator 添加配置验证器
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load 加载配置
// 优先级: 默认值 → YAML 文件 → 前缀环境变量 → 通用环境变量
func (l *Loader) Load() (*Config, error) {
	// 0. .env 只补充进程环境中尚未设置的变量
	if err := l.loadDotEnv(); err != nil {
		return nil, fmt.Errorf("failed to load dotenv: %w", err)
	}

	// 1. 从默认值开始
	cfg := DefaultConfig()

	// 2. 如果指定了配置文件，从文件加载
	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// 3. 从环境变量覆盖
	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}
	applyWellKnownEnv(cfg)

	// 4. 运行验证器
	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

func (l *Loader) loadDotEnv() error {
	for _, f := range l.dotEnv {
		if _, err := os.Stat(f); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("%s: %w", f, err)
		}
	}
	return nil
}

// loadFromFile 从 YAML 文件加载配置
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// 文件不存在，使用默认值
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// loadFromEnv 从环境变量加载配置
func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

// setFieldsFromEnv 递归设置结构体字段
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

// applyWellKnownEnv 空值视为未设置
func applyWellKnownEnv(cfg *Config) {
	for _, e := range wellKnownEnv {
		if v := os.Getenv(e.name); v != "" {
			e.apply(cfg, v)
		}
	}
}

// setFieldValue 设置字段值
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// 特殊处理 time.Duration
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		// 支持逗号分隔的字符串切片
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// =============================================================================
// 🔍 校验
// =============================================================================

// Validate 验证配置，缺失必填项时返回 CONFIG 错误
func (c *Config) Validate() error {
	var errs []error

	if c.Gateway.APIKey == "" {
		errs = append(errs, errors.New("API_KEY is required"))
	}
	if c.OpenAI.APIKey == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY is required"))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("server.max_body_bytes must be positive"))
	}
	if c.OpenAI.Temperature < 0 || c.OpenAI.Temperature > 2 {
		errs = append(errs, errors.New("openai.temperature must be between 0 and 2"))
	}

	switch c.Embedding.Provider {
	case EmbeddingProviderOpenAI:
	case EmbeddingProviderBedrock:
		if c.Embedding.Bedrock.Region == "" {
			errs = append(errs, errors.New("embedding.bedrock.region is required"))
		}
		if c.Embedding.Bedrock.ModelID == "" {
			errs = append(errs, errors.New("embedding.bedrock.model_id is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown embedding.provider %q", c.Embedding.Provider))
	}

	if c.Qdrant.Collection == "" {
		errs = append(errs, errors.New("COLLECTION_NAME must not be empty"))
	}
	if u, err := url.Parse(c.Qdrant.URL); err != nil || u.Hostname() == "" {
		errs = append(errs, fmt.Errorf("invalid QDRANT_URL %q", c.Qdrant.URL))
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid log.level %q", c.Log.Level))
	}

	if len(errs) > 0 {
		return types.NewConfigError("config validation errors").WithCause(errors.Join(errs...))
	}

	return nil
}
