package embedder

import "context"

// Client is the embedding capability the semantic layer consumes.
type Client interface {
	// Embed generates embeddings for the given texts.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// EmbedSingle generates an embedding for a single text.
	EmbedSingle(ctx context.Context, text string) ([]float32, error)
	// Dimensions returns the embedding vector length.
	Dimensions() int
	// Close cleans up any resources.
	Close() error
}

// Config holds provider-independent embedding settings.
type Config struct {
	Model      string
	BaseURL    string
	Dimensions int
	BatchSize  int
}
