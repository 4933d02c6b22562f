package service

import (
	"time"

	"github.com/okian/heartfuse/internal/adapters/mail"
	"github.com/okian/heartfuse/internal/adapters/report"
	repository "github.com/okian/heartfuse/internal/adapters/repository"
	"github.com/okian/heartfuse/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore injects a ready store. It takes precedence over WithStoreBackend.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithStoreBackend selects the store opened on Start.
func WithStoreBackend(backend, dsn string) Option {
	return func(s *Service) {
		if backend != "" {
			s.storeBackend = repository.Backend(backend)
		}
		s.storeDSN = dsn
	}
}

// WithDedupeSize bounds the remembered client submission IDs.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		s.dedupeSize = size
	}
}

// WithModalityWeights overrides fusion weights per modality.
func WithModalityWeights(weights map[string]float64) Option {
	return func(s *Service) {
		s.weights = weights
	}
}

// WithDefaultModalityWeight sets the weight for modalities without their own.
func WithDefaultModalityWeight(w float64) Option {
	return func(s *Service) {
		s.defaultWeight = w
	}
}

// WithReportsDir sets the directory documents are archived in.
func WithReportsDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.reportsDir = dir
		}
	}
}

// WithRenderer replaces the PDF renderer.
func WithRenderer(r report.Renderer) Option {
	return func(s *Service) {
		if r != nil {
			s.renderer = r
		}
	}
}

// WithMailConfig sets relay options for the default dispatcher.
func WithMailConfig(cfg mail.Config) Option {
	return func(s *Service) {
		s.mailConfig = cfg
	}
}

// WithDispatcher replaces the mail dispatcher.
func WithDispatcher(d Dispatcher) Option {
	return func(s *Service) {
		if d != nil {
			s.dispatcher = d
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
