package embedder_test

import (
	"context"
	"errors"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticesearch/lattice/pkg/config"
	"github.com/latticesearch/lattice/pkg/embedder"
)

func TestNewOpenAIEmbedder(t *testing.T) {
	tests := []struct {
		name   string
		apiKey string
		config embedder.Config
	}{
		{
			name:   "valid API key",
			apiKey: "test-api-key",
			config: embedder.Config{Model: "text-embedding-ada-002"},
		},
		{
			name:   "empty API key",
			apiKey: "",
			config: embedder.Config{Model: "text-embedding-ada-002"},
		},
		{
			name:   "custom base URL",
			apiKey: "test-api-key",
			config: embedder.Config{Model: "text-embedding-ada-002", BaseURL: "https://api.example.com"},
		},
		{
			name:   "empty model uses default",
			apiKey: "test-api-key",
			config: embedder.Config{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := embedder.NewOpenAIEmbedder(tt.apiKey, tt.config)
			assert.NotNil(t, client)
			assert.Greater(t, client.Dimensions(), 0)
		})
	}
}

func TestEmbedderInterface(t *testing.T) {
	var _ embedder.Client = (*embedder.OpenAIEmbedder)(nil)
	var _ embedder.Client = (*embedder.EmbedEverythingClient)(nil)
	var _ embedder.Client = (*embedder.CircuitBreakerClient)(nil)
}

func TestEmbedderConfig(t *testing.T) {
	tests := []struct {
		name         string
		config       embedder.Config
		expectedDims int
	}{
		{
			name:         "ada model",
			config:       embedder.Config{Model: "text-embedding-ada-002"},
			expectedDims: 1536,
		},
		{
			name:         "large model",
			config:       embedder.Config{Model: "text-embedding-3-large"},
			expectedDims: 3072,
		},
		{
			name:         "custom dimensions",
			config:       embedder.Config{Model: "custom-model", Dimensions: 512},
			expectedDims: 512,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := embedder.NewOpenAIEmbedder("test-key", tt.config)
			assert.Equal(t, tt.expectedDims, client.Dimensions())
		})
	}
}

func TestEmbedEmptyInput(t *testing.T) {
	client := embedder.NewOpenAIEmbedder("test-key", embedder.Config{})
	embeddings, err := client.Embed(context.Background(), nil)
	require.NoError(t, err, "embedding nothing is not an API call")
	assert.Nil(t, embeddings)
}

type flakyClient struct {
	failures int
	calls    int
}

func (f *flakyClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("provider down")
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (f *flakyClient) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vecs, err := f.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (f *flakyClient) Dimensions() int { return 2 }
func (f *flakyClient) Close() error    { return nil }

func TestCircuitBreakerTripsAfterFailures(t *testing.T) {
	inner := &flakyClient{failures: 1000}
	cfg := config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         60,
		Timeout:          60,
		ReadyToTripRatio: 0.5,
	}
	cb := embedder.NewCircuitBreakerClient(inner, cfg, &alertRecorder{}, "embedding")

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, _ = cb.EmbedSingle(ctx, "text")
	}

	_, err := cb.EmbedSingle(ctx, "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState, "the breaker short-circuits without calling the provider")
	assert.LessOrEqual(t, inner.calls, 5)
}

type alertRecorder struct {
	subjects []string
}

func (a *alertRecorder) Alert(subject, message string) error {
	a.subjects = append(a.subjects, subject)
	return nil
}

func TestCircuitBreakerPassesThroughSuccess(t *testing.T) {
	inner := &flakyClient{}
	cfg := config.CircuitBreakerConfig{MaxRequests: 1, Interval: 60, Timeout: 60, ReadyToTripRatio: 0.5}
	cb := embedder.NewCircuitBreakerClient(inner, cfg, nil, "embedding")

	vec, err := cb.EmbedSingle(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, vec)
	assert.Equal(t, 2, cb.Dimensions())
	assert.NoError(t, cb.Close())
}
