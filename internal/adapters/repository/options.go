package repository

import (
	"time"

	"github.com/google/uuid"
)

const defaultMetricsUpdateInterval = 5 * time.Second

type options struct {
	metricsUpdateInterval time.Duration
	newID                 func() string
}

func defaultOptions() options {
	return options{
		metricsUpdateInterval: defaultMetricsUpdateInterval,
		newID:                 uuid.NewString,
	}
}

// Option applies a configuration option to a Store.
type Option func(*options)

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(o *options) {
		if interval > 0 {
			o.metricsUpdateInterval = interval
		}
	}
}

// WithIDGenerator replaces the UUID generator used for new record IDs.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) {
		if fn != nil {
			o.newID = fn
		}
	}
}
