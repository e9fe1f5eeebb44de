package service

import (
	"time"

	"github.com/okian/tourney/internal/domain/groups"
	"github.com/okian/tourney/internal/domain/points"
	"github.com/okian/tourney/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending submissions.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many submission ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDefaultPoints sets the points settings used when a submission carries
// none.
func WithDefaultPoints(cfg points.Config) Option {
	return func(s *Service) {
		s.defaultPoints = cfg.Sanitize()
	}
}

// WithDefaultGroupSize sets the group size used when a request omits it.
func WithDefaultGroupSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.defaultGroupSize = size
		}
	}
}

// WithShuffler fixes the order unassigned players are seated in.
func WithShuffler(sh groups.Shuffler) Option {
	return func(s *Service) {
		if sh != nil {
			s.scheduler = groups.NewScheduler(groups.WithShuffler(sh))
		}
	}
}

// WithClock sets the time source for computed results and ratings.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
