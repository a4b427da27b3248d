// Package embedding maps text to fixed-dimension vectors through a
// provider-neutral interface. Providers are selected at construction via a
// config tag, never by runtime type inspection.
package embedding

import "context"

// Embedding is the capability interface every embedding provider
// implements. Embed and EmbedBatch must be value-preserving with respect to
// each other: embedding a text alone or inside a batch yields the same
// vector.
type Embedding interface {
	// Embed generates the vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates vectors for a batch of texts, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension reports the fixed vector dimension of this provider. It
	// must match the vector index's configured dimension.
	Dimension() int
}
