package bedrock

import (
	"context"
	"errors"
	"testing"

	"github.com/BaSui01/embedgate/config"
	"github.com/BaSui01/embedgate/types"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

type fakeInvoker struct {
	last *bedrockruntime.InvokeModelInput
	body string
	err  error
}

func (f *fakeInvoker) InvokeModel(_ context.Context, in *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.last = in
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: []byte(f.body)}, nil
}

func TestTitanEmbedder_V2SendsDimensions(t *testing.T) {
	fake := &fakeInvoker{body: `{"embedding":[0.5,-0.25,1],"inputTextTokenCount":3}`}
	e := newTitanEmbedder(fake, config.DefaultEmbeddingConfig().Bedrock, zap.NewNop())

	vec, err := e.Embed(context.Background(), `say "hi"`)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -0.25, 1}, vec)

	require.NotNil(t, fake.last)
	assert.Equal(t, "amazon.titan-embed-text-v2:0", aws.ToString(fake.last.ModelId))
	assert.Equal(t, "application/json", aws.ToString(fake.last.ContentType))
	assert.Equal(t, `say "hi"`, gjson.GetBytes(fake.last.Body, "inputText").String())
	assert.Equal(t, int64(1024), gjson.GetBytes(fake.last.Body, "dimensions").Int())
}

func TestTitanEmbedder_V1OmitsDimensions(t *testing.T) {
	fake := &fakeInvoker{body: `{"embedding":[1,2]}`}
	e := newTitanEmbedder(fake, config.BedrockConfig{
		Region:     "us-east-1",
		ModelID:    "amazon.titan-embed-text-v1",
		Dimensions: 1024,
	}, nil)

	_, err := e.Embed(context.Background(), "x")
	require.NoError(t, err)
	assert.False(t, gjson.GetBytes(fake.last.Body, "dimensions").Exists())
}

func TestTitanEmbedder_Errors(t *testing.T) {
	cfg := config.DefaultEmbeddingConfig().Bedrock

	tests := []struct {
		name string
		fake *fakeInvoker
	}{
		{"invoke fails", &fakeInvoker{err: errors.New("ThrottlingException")}},
		{"missing embedding", &fakeInvoker{body: `{"message":"bad"}`}},
		{"empty embedding", &fakeInvoker{body: `{"embedding":[]}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTitanEmbedder(tt.fake, cfg, zap.NewNop())
			_, err := e.Embed(context.Background(), "x")
			require.Error(t, err)
			assert.True(t, types.IsErrorCode(err, types.ErrUpstreamError))
		})
	}
}
