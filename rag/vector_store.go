package rag

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

// Document 是写入向量库的一条记录。
// Embedding 作为点的原生稠密向量存储，不会出现在 payload 中。
type Document struct {
	ID        uint64    `json:"id"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
}

// Store 向量库统一接口
type Store interface {
	// Upsert 写入（或覆盖）单个文档
	Upsert(ctx context.Context, doc Document) error
	// DeleteAll 删除集合中的全部点，集合本身保留
	DeleteAll(ctx context.Context) error
	// Count 精确统计点数
	Count(ctx context.Context) (uint64, error)
	// Check 探测向量库是否可用
	Check(ctx context.Context) error
	Close() error
}

// payloadExcludedField 在 payload 中剔除的字段，其内容已作为原生向量存储
const payloadExcludedField = "embedding"

// PayloadFromDocument 将文档序列化为 JSON、剔除 embedding 后转换为 Qdrant payload。
func PayloadFromDocument(doc Document) (map[string]*qdrant.Value, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document %d: %w", doc.ID, err)
	}

	obj, err := decodeJSONObject(raw)
	if err != nil {
		return nil, fmt.Errorf("decode document %d: %w", doc.ID, err)
	}
	delete(obj, payloadExcludedField)

	return PayloadFromMap(obj), nil
}

// PayloadFromMap converts every entry of a decoded JSON object.
func PayloadFromMap(obj map[string]any) map[string]*qdrant.Value {
	payload := make(map[string]*qdrant.Value, len(obj))
	for k, v := range obj {
		payload[k] = ValueFromJSON(v)
	}
	return payload
}
