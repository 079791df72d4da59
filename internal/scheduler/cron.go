package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/nova-nexus-hub/nexora-forms-backend/internal/ratelimit"
	"github.com/nova-nexus-hub/nexora-forms-backend/internal/repositories"
	"github.com/nova-nexus-hub/nexora-forms-backend/pkg/metrics"
)

// CronScheduler owns the periodic maintenance work: sweeping expired
// rate-limit fingerprints and logging a daily submissions summary.
type CronScheduler struct {
	cron           *cron.Cron
	limiter        *ratelimit.FingerprintLimiter
	store          repositories.RecordStore
	metrics        *metrics.Metrics
	logger         *logrus.Logger
	jobTimeout     time.Duration
	activeJobs     sync.WaitGroup
	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc
}

func NewCronScheduler(
	limiter *ratelimit.FingerprintLimiter,
	store repositories.RecordStore,
	m *metrics.Metrics,
	logger *logrus.Logger,
) *CronScheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &CronScheduler{
		cron:           cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		limiter:        limiter,
		store:          store,
		metrics:        m,
		logger:         logger,
		jobTimeout:     5 * time.Minute,
		shutdownCtx:    ctx,
		shutdownCancel: cancel,
	}
}

func (s *CronScheduler) Start() {
	// Sweep expired rate-limit buckets every hour
	_, err := s.cron.AddFunc("@hourly", s.createJobWrapper("Rate Limit Sweep", func(ctx context.Context) error {
		removed := s.limiter.Sweep()
		s.logger.WithField("removed", removed).Debug("Swept expired fingerprints")
		return nil
	}))
	if err != nil {
		s.logger.WithError(err).Error("Failed to schedule rate limit sweep")
	}

	// Log a submissions summary daily at midnight UTC
	_, err = s.cron.AddFunc("0 0 * * *", s.createJobWrapper("Daily Summary", func(ctx context.Context) error {
		return s.logSummary(ctx)
	}))
	if err != nil {
		s.logger.WithError(err).Error("Failed to schedule daily summary")
	}

	s.cron.Start()
	s.logger.Info("Cron scheduler started successfully")
}

func (s *CronScheduler) logSummary(ctx context.Context) error {
	registrations, err := s.store.CountRows(ctx, repositories.TableRegistrations)
	if err != nil {
		return err
	}
	messages, err := s.store.CountRows(ctx, repositories.TableContactMessages)
	if err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"registrations":    registrations,
		"contact_messages": messages,
	}).Info("Daily submissions summary")
	return nil
}

// createJobWrapper wraps a job with context, timeout, logging, and panic recovery
func (s *CronScheduler) createJobWrapper(jobName string, jobFunc func(context.Context) error) func() {
	return func() {
		s.activeJobs.Add(1)
		defer s.activeJobs.Done()

		ctx, cancel := context.WithTimeout(s.shutdownCtx, s.jobTimeout)
		defer cancel()

		startTime := time.Now()
		s.logger.WithField("job", jobName).Debug("Starting scheduled job")

		defer func() {
			if r := recover(); r != nil {
				s.logger.WithFields(logrus.Fields{
					"job":   jobName,
					"panic": r,
				}).Error("Job panicked")
			}
		}()

		err := jobFunc(ctx)
		duration := time.Since(startTime)
		s.metrics.RecordSchedulerJob(jobName, err == nil, duration)

		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"job":      jobName,
				"duration": duration.String(),
				"error":    err.Error(),
			}).Error("Job failed")
		} else {
			s.logger.WithFields(logrus.Fields{
				"job":      jobName,
				"duration": duration.String(),
			}).Info("Job completed successfully")
		}
	}
}

func (s *CronScheduler) Stop() {
	s.logger.Info("Stopping cron scheduler...")

	ctx := s.cron.Stop()
	s.shutdownCancel()

	done := make(chan struct{})
	go func() {
		s.activeJobs.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("All jobs completed, cron scheduler stopped")
	case <-ctx.Done():
		s.logger.Info("Cron scheduler stopped")
	case <-time.After(30 * time.Second):
		s.logger.Warn("Timeout waiting for jobs to complete, forcing shutdown")
	}
}

// GetSchedulerStatus returns the current status of the scheduler
func (s *CronScheduler) GetSchedulerStatus() map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}

	return map[string]interface{}{
		"running":   len(entries) > 0,
		"job_count": len(entries),
		"jobs":      jobs,
	}
}
