package cronjob

import (
	"context"
	"fmt"
	"time"

	"github.com/dockopt/dockopt-backend/internal/optimizer/llm"
	"github.com/dockopt/dockopt-backend/internal/optimizer/repository"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// MetricsSource reports completion API call counters
type MetricsSource interface {
	Metrics() llm.MetricsSnapshot
}

// Scheduler periodically logs session and AI usage stats
type Scheduler struct {
	cron    *cron.Cron
	store   repository.SessionStore
	metrics MetricsSource
	logger  *zap.Logger
}

func NewScheduler(store repository.SessionStore, metrics MetricsSource, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		store:   store,
		metrics: metrics,
		logger:  logger,
	}
}

// Start registers the stats job under spec (six fields, seconds first) and
// starts the cron loop.
func (s *Scheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.logStats); err != nil {
		return fmt.Errorf("invalid STATS_CRON %q: %w", spec, err)
	}

	s.logger.Info("stats scheduler started", zap.String("schedule", spec))
	s.cron.Start()
	return nil
}

// Stop stops the cron loop and waits for a running job.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) logStats() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	fields := make([]zap.Field, 0, 4)

	n, err := s.store.Count(ctx)
	if err != nil {
		s.logger.Warn("stats: counting sessions failed", zap.Error(err))
	} else {
		fields = append(fields, zap.Int("sessions", n))
	}

	if s.metrics != nil {
		m := s.metrics.Metrics()
		fields = append(fields,
			zap.Int64("ai_calls", m.Calls),
			zap.Int64("ai_errors", m.Errors),
			zap.Float64("ai_avg_latency_ms", m.AverageLatencyMs),
		)
	}

	s.logger.Info("stats", fields...)
}
