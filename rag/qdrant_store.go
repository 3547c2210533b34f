package rag

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/BaSui01/embedgate/config"
	"github.com/BaSui01/embedgate/internal/tlsutil"
	"github.com/BaSui01/embedgate/types"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
)

const (
	providerQdrant = "qdrant"
	// Qdrant 的 REST 默认端口；gRPC 客户端需要改连 grpc_port
	qdrantRESTPort = 6333
)

// pointsAPI 是 QdrantStore 使用的 *qdrant.Client 方法子集
type pointsAPI interface {
	CollectionExists(ctx context.Context, collectionName string) (bool, error)
	CreateCollection(ctx context.Context, request *qdrant.CreateCollection) error
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Delete(ctx context.Context, request *qdrant.DeletePoints) (*qdrant.UpdateResult, error)
	Count(ctx context.Context, request *qdrant.CountPoints) (uint64, error)
	HealthCheck(ctx context.Context) (*qdrant.HealthCheckReply, error)
	Close() error
}

// Endpoint 是从 QDRANT_URL 推导出的 gRPC 连接参数
type Endpoint struct {
	Host   string
	Port   int
	UseTLS bool
}

// ParseEndpoint derives the gRPC endpoint from a REST style URL.
// The REST port 6333 (or no port at all) maps to grpcPort; any other
// explicit port is used as-is. An https scheme enables TLS.
func ParseEndpoint(rawURL string, grpcPort int) (Endpoint, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return Endpoint{}, fmt.Errorf("parse qdrant url: %w", err)
	}
	if u.Hostname() == "" {
		return Endpoint{}, fmt.Errorf("qdrant url %q has no host", rawURL)
	}

	ep := Endpoint{
		Host:   u.Hostname(),
		Port:   grpcPort,
		UseTLS: strings.EqualFold(u.Scheme, "https"),
	}
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Endpoint{}, fmt.Errorf("qdrant url port %q: %w", p, err)
		}
		if n != qdrantRESTPort {
			ep.Port = n
		}
	}
	return ep, nil
}

// QdrantStore implements Store on top of the official Qdrant gRPC client.
type QdrantStore struct {
	cfg    config.QdrantConfig
	client pointsAPI
	logger *zap.Logger

	ensureOnce sync.Once
	ensureErr  error
}

// NewQdrantStore 创建基于 gRPC 的 Qdrant 存储
func NewQdrantStore(cfg config.QdrantConfig, logger *zap.Logger) (*QdrantStore, error) {
	ep, err := ParseEndpoint(cfg.URL, cfg.GRPCPort)
	if err != nil {
		return nil, types.NewConfigError("invalid qdrant endpoint").WithCause(err)
	}

	qc := &qdrant.Config{
		Host:   ep.Host,
		Port:   ep.Port,
		APIKey: cfg.APIKey,
		UseTLS: ep.UseTLS,
	}
	if ep.UseTLS {
		qc.TLSConfig = tlsutil.DefaultTLSConfig()
	}
	client, err := qdrant.NewClient(qc)
	if err != nil {
		return nil, types.NewUpstreamError(providerQdrant, "create qdrant client", err)
	}

	store := newQdrantStore(cfg, client, logger)
	store.logger.Info("qdrant store initialized",
		zap.String("host", ep.Host),
		zap.Int("port", ep.Port),
		zap.Bool("tls", ep.UseTLS),
		zap.String("collection", cfg.Collection),
	)
	return store, nil
}

func newQdrantStore(cfg config.QdrantConfig, client pointsAPI, logger *zap.Logger) *QdrantStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QdrantStore{
		cfg:    cfg,
		client: client,
		logger: logger.With(zap.String("component", "qdrant_store")),
	}
}

// Collection 返回目标集合名
func (s *QdrantStore) Collection() string {
	return s.cfg.Collection
}

func (s *QdrantStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.Timeout)
}

func (s *QdrantStore) ensureCollection(ctx context.Context, vectorSize int) error {
	if !s.cfg.AutoCreateCollection {
		return nil
	}
	if vectorSize <= 0 {
		return fmt.Errorf("qdrant vector size must be > 0")
	}

	s.ensureOnce.Do(func() {
		exists, err := s.client.CollectionExists(ctx, s.cfg.Collection)
		if err != nil {
			s.ensureErr = fmt.Errorf("check collection: %w", err)
			return
		}
		if exists {
			return
		}

		s.ensureErr = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: s.cfg.Collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(vectorSize),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if s.ensureErr == nil {
			s.logger.Info("collection created",
				zap.String("collection", s.cfg.Collection),
				zap.Int("vector_size", vectorSize))
		}
	})

	return s.ensureErr
}

// Upsert writes a single point: numeric id, the embedding as its dense
// vector and the rest of the document as payload.
func (s *QdrantStore) Upsert(ctx context.Context, doc Document) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.ensureCollection(ctx, len(doc.Embedding)); err != nil {
		return types.NewUpstreamError(providerQdrant, "ensure collection", err)
	}

	payload, err := PayloadFromDocument(doc)
	if err != nil {
		return types.NewError(types.ErrInternalError, "build payload").WithCause(err)
	}

	_, err = s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.cfg.Collection,
		Wait:           qdrant.PtrOf(true),
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewIDNum(doc.ID),
				Vectors: qdrant.NewVectors(doc.Embedding...),
				Payload: payload,
			},
		},
	})
	if err != nil {
		return types.NewUpstreamError(providerQdrant, "upsert point", err)
	}

	s.logger.Debug("document upserted", zap.Uint64("id", doc.ID), zap.Int("dims", len(doc.Embedding)))
	return nil
}

// DeleteAll 使用空过滤器删除集合中的所有点
func (s *QdrantStore) DeleteAll(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.cfg.Collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelectorFilter(&qdrant.Filter{}),
	})
	if err != nil {
		return types.NewUpstreamError(providerQdrant, "delete points", err)
	}

	s.logger.Info("collection cleared", zap.String("collection", s.cfg.Collection))
	return nil
}

// Count 精确统计集合中的点数
func (s *QdrantStore) Count(ctx context.Context) (uint64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	n, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.cfg.Collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, types.NewUpstreamError(providerQdrant, "count points", err)
	}
	return n, nil
}

// Check 调用 Qdrant 健康检查
func (s *QdrantStore) Check(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.client.HealthCheck(ctx); err != nil {
		return types.NewUpstreamError(providerQdrant, "health check", err)
	}
	return nil
}

// Close 关闭底层 gRPC 连接
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

var _ Store = (*QdrantStore)(nil)
