package embedder

import "context"

// Embedder turns text into a fixed-dimension vector. EmbedBatch preserves
// input order; implementations batch a single round trip where the provider
// supports it.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
