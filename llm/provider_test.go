package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmbedder struct{ vec []float32 }

func (s stubEmbedder) Embed(context.Context, string) ([]float32, error) { return s.vec, nil }

type stubCompleter struct{ err error }

func (s stubCompleter) Complete(_ context.Context, msg string) (*CompletionResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &CompletionResult{Response: "echo: " + msg}, nil
}

func TestGateway_Delegates(t *testing.T) {
	g, err := NewGateway(stubEmbedder{vec: []float32{1}}, stubCompleter{})
	require.NoError(t, err)

	vec, err := g.Embed(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []float32{1}, vec)

	res, err := g.Complete(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "echo: x", res.Response)

	boom := errors.New("boom")
	g, err = NewGateway(stubEmbedder{}, stubCompleter{err: boom})
	require.NoError(t, err)
	_, err = g.Complete(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
}

func TestNewGateway_RequiresBoth(t *testing.T) {
	_, err := NewGateway(nil, stubCompleter{})
	assert.Error(t, err)
	_, err = NewGateway(stubEmbedder{}, nil)
	assert.Error(t, err)
}
