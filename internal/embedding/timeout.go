package embedding

import (
	"context"
	"time"
)

// timeoutModel enforces a per-call deadline on an inner provider.
type timeoutModel struct {
	inner   Embedding
	timeout time.Duration
}

// WithTimeout wraps model so every call carries the given deadline. A
// non-positive timeout returns the model unchanged.
func WithTimeout(model Embedding, timeout time.Duration) Embedding {
	if timeout <= 0 {
		return model
	}
	return &timeoutModel{inner: model, timeout: timeout}
}

func (m *timeoutModel) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return m.inner.Embed(ctx, text)
}

func (m *timeoutModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return m.inner.EmbedBatch(ctx, texts)
}

func (m *timeoutModel) Dimension() int {
	return m.inner.Dimension()
}

var _ Embedding = (*timeoutModel)(nil)
