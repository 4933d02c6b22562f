package fusion

import "github.com/okian/heartfuse/internal/domain/model"

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithWeights overrides per-modality weights. Keys are canonicalized;
// non-positive weights are ignored.
func WithWeights(weights map[string]float64) Option {
	return func(a *Aggregator) {
		for k, w := range weights {
			if w > 0 {
				a.weights[model.ParseModality(k)] = w
			}
		}
	}
}

// WithDefaultWeight sets the weight used for modalities without their own.
func WithDefaultWeight(w float64) Option {
	return func(a *Aggregator) {
		if w > 0 {
			a.defaultWeight = w
		}
	}
}
