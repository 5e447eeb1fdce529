package services

import "context"

// AIClient is the provider boundary for embeddings and text generation.
// Ingestion and answering depend on this interface only, so tests can swap
// in deterministic fakes.
type AIClient interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
	GenerateText(ctx context.Context, system string, user string) (string, error)
}
