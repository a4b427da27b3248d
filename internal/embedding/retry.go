package embedding

import (
	"context"

	"finsight/pkg/retry"
)

// retryModel re-runs failed calls on an inner provider with bounded
// backoff. Per-call deadlines belong inside the loop, so wrap with
// WithTimeout first and WithRetry outermost.
type retryModel struct {
	inner Embedding
	cfg   retry.Config
}

// WithRetry wraps model so transient provider failures are retried per
// cfg. A budget of fewer than two attempts returns the model unchanged.
func WithRetry(model Embedding, cfg retry.Config) Embedding {
	if cfg.Attempts < 2 {
		return model
	}
	return &retryModel{inner: model, cfg: cfg}
}

func (m *retryModel) Embed(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	err := retry.Do(ctx, m.cfg, func(ctx context.Context) error {
		var err error
		vec, err = m.inner.Embed(ctx, text)
		return err
	})
	if err != nil {
		return nil, err
	}
	return vec, nil
}

func (m *retryModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32
	err := retry.Do(ctx, m.cfg, func(ctx context.Context) error {
		var err error
		vectors, err = m.inner.EmbedBatch(ctx, texts)
		return err
	})
	if err != nil {
		return nil, err
	}
	return vectors, nil
}

func (m *retryModel) Dimension() int {
	return m.inner.Dimension()
}

var _ Embedding = (*retryModel)(nil)
