package vectorstore

import (
	"math"

	"finsight/internal/rag/ragerr"
)

// Metric is the similarity measure of a vector index. It is fixed per
// store instance at construction; mixing metrics on one index is prevented
// by construction.
type Metric string

const (
	// MetricCosine scores by cosine similarity.
	MetricCosine Metric = "cosine"
	// MetricDot scores by inner product.
	MetricDot Metric = "dot"
)

// ParseMetric maps a config string to a Metric.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricCosine, MetricDot:
		return Metric(s), nil
	default:
		return "", ragerr.NewConfigurationError("vectorStore.metric", "unsupported metric %q", s)
	}
}

// Score computes the similarity of two same-length vectors under the
// metric. Higher is always more similar. A zero-magnitude vector scores 0
// under cosine.
func (m Metric) Score(a, b []float32) float64 {
	var dot, na2, nb2 float64
	for i := range a {
		va, vb := float64(a[i]), float64(b[i])
		dot += va * vb
		na2 += va * va
		nb2 += vb * vb
	}
	if m == MetricDot {
		return dot
	}
	if na2 == 0 || nb2 == 0 {
		return 0
	}
	return dot / (math.Sqrt(na2) * math.Sqrt(nb2))
}
