// Package bedrock 提供基于 AWS Bedrock Titan 模型的 Embedder 实现。
package bedrock

import (
	"context"
	"fmt"
	"strings"

	"github.com/BaSui01/embedgate/config"
	"github.com/BaSui01/embedgate/llm"
	"github.com/BaSui01/embedgate/types"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"
)

const providerBedrock = "bedrock"

// titanV2Prefix Titan Embeddings Text V2 才接受 dimensions 参数
const titanV2Prefix = "amazon.titan-embed-text-v2"

// modelInvoker 是 *bedrockruntime.Client 的可替换子集
type modelInvoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// TitanEmbedder embeds text with an Amazon Titan embedding model.
type TitanEmbedder struct {
	client     modelInvoker
	modelID    string
	dimensions int
	logger     *zap.Logger
}

// NewTitanEmbedder loads AWS credentials from the default chain for the
// configured region.
func NewTitanEmbedder(ctx context.Context, cfg config.BedrockConfig, logger *zap.Logger) (*TitanEmbedder, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, types.NewConfigError("load aws config").WithCause(err)
	}
	return newTitanEmbedder(bedrockruntime.NewFromConfig(awsCfg), cfg, logger), nil
}

func newTitanEmbedder(client modelInvoker, cfg config.BedrockConfig, logger *zap.Logger) *TitanEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TitanEmbedder{
		client:     client,
		modelID:    cfg.ModelID,
		dimensions: cfg.Dimensions,
		logger:     logger.With(zap.String("component", "bedrock_titan"), zap.String("model", cfg.ModelID)),
	}
}

// requestBody 构造 Titan 请求体：
//
//	{"inputText": string, "dimensions": int}   // dimensions 仅 V2
func (e *TitanEmbedder) requestBody(text string) ([]byte, error) {
	body, err := sjson.SetBytes(nil, "inputText", text)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(e.modelID, titanV2Prefix) && e.dimensions > 0 {
		body, err = sjson.SetBytes(body, "dimensions", e.dimensions)
		if err != nil {
			return nil, err
		}
	}
	return body, nil
}

// Embed 调用 InvokeModel 并读取 embedding 数组
func (e *TitanEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := e.requestBody(text)
	if err != nil {
		return nil, types.NewError(types.ErrInternalError, "build titan request").WithCause(err)
	}

	out, err := e.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		Body:        body,
		ModelId:     aws.String(e.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		return nil, types.NewUpstreamError(providerBedrock, "invoke model", err)
	}

	result := gjson.GetBytes(out.Body, "embedding")
	if !result.IsArray() {
		return nil, types.NewUpstreamError(providerBedrock,
			fmt.Sprintf("titan response has no embedding array: %.64s", out.Body), nil)
	}
	values := result.Array()
	if len(values) == 0 {
		return nil, types.NewUpstreamError(providerBedrock, "titan returned an empty embedding", nil)
	}

	vec := make([]float32, len(values))
	for i, v := range values {
		vec[i] = float32(v.Float())
	}

	e.logger.Debug("text embedded",
		zap.Int("dims", len(vec)),
		zap.Int64("input_tokens", gjson.GetBytes(out.Body, "inputTextTokenCount").Int()))
	return vec, nil
}

var _ llm.Embedder = (*TitanEmbedder)(nil)
