package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/study-planner/internal/clock"
	"github.com/benvon/study-planner/internal/queue"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultMissedSweepCron runs the sweep five minutes past midnight
const DefaultMissedSweepCron = "5 0 * * *"

// sweepJobTTL bounds how long a queued sweep stays useful
const sweepJobTTL = 6 * time.Hour

// MissedSweepScheduler enqueues a missed_sweep job on a cron schedule
type MissedSweepScheduler struct {
	cron     *cron.Cron
	jobQueue queue.JobQueue
	loc      *time.Location
	logger   *zap.Logger
}

// NewMissedSweepScheduler registers the sweep under spec (standard five-field cron, evaluated in loc)
func NewMissedSweepScheduler(spec string, loc *time.Location, jobQueue queue.JobQueue, logger *zap.Logger) (*MissedSweepScheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if spec == "" {
		spec = DefaultMissedSweepCron
	}

	s := &MissedSweepScheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		jobQueue: jobQueue,
		loc:      loc,
		logger:   logger,
	}
	if _, err := s.cron.AddFunc(spec, func() {
		if err := s.Trigger(context.Background()); err != nil {
			s.logger.Error("missed_sweep_enqueue_failed", zap.Error(err))
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid missed sweep schedule %q: %w", spec, err)
	}
	return s, nil
}

// Trigger enqueues a sweep for everything dated before today
func (s *MissedSweepScheduler) Trigger(ctx context.Context) error {
	job := queue.NewJob(queue.JobTypeMissedSweep, uuid.Nil)
	job.Metadata[MetadataBefore] = clock.Today(s.loc).String()
	notAfter := time.Now().Add(sweepJobTTL)
	job.NotAfter = &notAfter

	if err := s.jobQueue.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("failed to enqueue missed sweep: %w", err)
	}
	s.logger.Info("missed_sweep_enqueued",
		zap.String("job_id", job.ID.String()),
		zap.Any("before", job.Metadata[MetadataBefore]),
	)
	return nil
}

// Start begins firing the schedule in the background
func (s *MissedSweepScheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running trigger to finish
func (s *MissedSweepScheduler) Stop() {
	<-s.cron.Stop().Done()
}
