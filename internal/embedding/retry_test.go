package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/internal/rag/ragerr"
	"finsight/pkg/retry"
)

// flakyModel fails the first failures calls, then succeeds.
type flakyModel struct {
	failures int
	calls    int
}

func (m *flakyModel) Embed(ctx context.Context, text string) ([]float32, error) {
	m.calls++
	if m.calls <= m.failures {
		return nil, ragerr.Unavailable(errConnRefused)
	}
	return []float32{1, 0}, nil
}

func (m *flakyModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.calls++
	if m.calls <= m.failures {
		return nil, ragerr.Unavailable(errConnRefused)
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (m *flakyModel) Dimension() int { return 2 }

var errConnRefused = errors.New("connection refused")

func retryCfg() retry.Config {
	return retry.Config{Attempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestWithRetry_RecoversFromTransientFailure(t *testing.T) {
	inner := &flakyModel{failures: 2}
	model := WithRetry(inner, retryCfg())

	vec, err := model.Embed(context.Background(), "quarterly revenue")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, vec)
	assert.Equal(t, 3, inner.calls)
}

func TestWithRetry_BatchExhaustsBudget(t *testing.T) {
	inner := &flakyModel{failures: 10}
	model := WithRetry(inner, retryCfg())

	_, err := model.EmbedBatch(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ragerr.ErrProviderUnavailable)
	assert.Equal(t, 3, inner.calls, "stops after the configured attempts")
}

func TestWithRetry_SingleAttemptReturnsModelUnchanged(t *testing.T) {
	inner := &flakyModel{}
	model := WithRetry(inner, retry.Config{Attempts: 1})
	assert.Same(t, inner, model)
}
