// Package workers runs queued background jobs: progress syncs enqueued by the API and the
// periodic missed-schedule sweep.
package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/study-planner/internal/clock"
	"github.com/benvon/study-planner/internal/progress"
	"github.com/benvon/study-planner/internal/queue"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultRetryBaseDelay is the delay before the first retry; each further retry doubles it
const DefaultRetryBaseDelay = 5 * time.Second

// MetadataBefore is the job metadata key carrying the sweep cutoff date (YYYY-MM-DD)
const MetadataBefore = "before"

// ProgressSyncer applies progress events to learning paths
type ProgressSyncer interface {
	SyncProgress(ctx context.Context, userID, pathID uuid.UUID, event progress.Event) (*progress.SyncResult, error)
}

// MissedMarker flips overdue scheduled entries to missed
type MissedMarker interface {
	MarkMissedSchedules(ctx context.Context, before clock.Date) (int64, error)
}

// JobProcessor executes jobs delivered by a JobQueue
type JobProcessor struct {
	progress  ProgressSyncer
	schedules MissedMarker
	jobQueue  queue.JobQueue
	logger    *zap.Logger
	loc       *time.Location
	baseDelay time.Duration
}

// NewJobProcessor creates a processor. jobQueue is used to re-enqueue failed and early jobs;
// without it failed jobs are requeued through the broker immediately.
func NewJobProcessor(syncer ProgressSyncer, schedules MissedMarker, jobQueue queue.JobQueue, logger *zap.Logger) *JobProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobProcessor{
		progress:  syncer,
		schedules: schedules,
		jobQueue:  jobQueue,
		logger:    logger,
		loc:       time.UTC,
		baseDelay: DefaultRetryBaseDelay,
	}
}

// SetLocation sets the zone used to compute "today" for sweeps without an explicit cutoff
func (p *JobProcessor) SetLocation(loc *time.Location) {
	if loc != nil {
		p.loc = loc
	}
}

// SetRetryBaseDelay replaces the first retry delay
func (p *JobProcessor) SetRetryBaseDelay(d time.Duration) {
	if d >= 0 {
		p.baseDelay = d
	}
}

// Run consumes jobs until ctx is cancelled or the delivery channel closes
func (p *JobProcessor) Run(ctx context.Context, jobQueue queue.JobQueue, prefetch int) error {
	msgs, errs, err := jobQueue.Consume(ctx, prefetch)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			p.logger.Error("queue_error", zap.Error(err))
		case msg, ok := <-msgs:
			if !ok {
				p.logger.Info("queue_delivery_closed")
				return nil
			}
			if err := p.Handle(ctx, msg); err != nil {
				job := msg.GetJob()
				p.logger.Error("job_failed",
					zap.String("job_id", job.ID.String()),
					zap.String("job_type", string(job.Type)),
					zap.Int("retry_count", job.RetryCount),
					zap.Error(err),
				)
			}
		}
	}
}

// Handle runs one delivered job and settles the delivery. Permanent failures are dead-lettered
// at once; transient ones are retried with exponential backoff until MaxRetries.
func (p *JobProcessor) Handle(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	if job.IsExpired() {
		p.logger.Info("job_expired",
			zap.String("job_id", job.ID.String()),
			zap.String("job_type", string(job.Type)),
		)
		return msg.Ack()
	}
	if !job.ShouldProcess() && p.jobQueue != nil {
		// broker without delayed delivery handed it over early
		if err := p.jobQueue.Enqueue(ctx, job); err != nil {
			if nackErr := msg.Nack(true); nackErr != nil {
				p.logger.Warn("job_nack_failed", zap.Error(nackErr))
			}
			return fmt.Errorf("failed to defer early job: %w", err)
		}
		return msg.Ack()
	}

	err := p.Process(ctx, job)
	if err == nil {
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack job: %w", ackErr)
		}
		return nil
	}
	return p.handleFailure(ctx, msg, job, err)
}

// Process runs a job without touching the delivery
func (p *JobProcessor) Process(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeProgressSync:
		return p.processProgressSync(ctx, job)
	case queue.JobTypeMissedSweep:
		return p.processMissedSweep(ctx, job)
	default:
		return permanent(fmt.Errorf("unknown job type: %s", job.Type))
	}
}

func (p *JobProcessor) processProgressSync(ctx context.Context, job *queue.Job) error {
	if job.PathID == nil {
		return permanent(errors.New("progress_sync job without path_id"))
	}
	event, err := progress.DecodeEvent(job.Event)
	if err != nil {
		return permanent(err)
	}

	result, err := p.progress.SyncProgress(ctx, job.UserID, *job.PathID, event)
	if err != nil {
		if errors.Is(err, progress.ErrPathNotFound) ||
			errors.Is(err, progress.ErrTodoNotFound) ||
			errors.Is(err, progress.ErrTodoNotOnPath) ||
			errors.Is(err, progress.ErrInvalidEvent) {
			return permanent(err)
		}
		return err
	}

	p.logger.Info("progress_sync_job_completed",
		zap.String("job_id", job.ID.String()),
		zap.String("user_id", job.UserID.String()),
		zap.String("path_id", job.PathID.String()),
		zap.Int("completed_steps", len(result.CompletedStepIDs)),
		zap.Float64("progress_percentage", result.ProgressPercentage),
	)
	return nil
}

func (p *JobProcessor) processMissedSweep(ctx context.Context, job *queue.Job) error {
	before := clock.Today(p.loc)
	if raw, ok := job.Metadata[MetadataBefore].(string); ok && raw != "" {
		parsed, err := clock.ParseDate(raw)
		if err != nil {
			return permanent(fmt.Errorf("invalid sweep cutoff %q: %w", raw, err))
		}
		before = parsed
	}

	n, err := p.schedules.MarkMissedSchedules(ctx, before)
	if err != nil {
		return err
	}
	p.logger.Info("missed_sweep_job_completed",
		zap.String("job_id", job.ID.String()),
		zap.String("before", before.String()),
		zap.Int64("marked", n),
	)
	return nil
}

func (p *JobProcessor) handleFailure(ctx context.Context, msg queue.MessageInterface, job *queue.Job, jobErr error) error {
	var perm *permanentError
	if errors.As(jobErr, &perm) || !job.CanRetry() {
		p.logger.Warn("job_dead_lettered",
			zap.String("job_id", job.ID.String()),
			zap.String("job_type", string(job.Type)),
			zap.Int("retry_count", job.RetryCount),
			zap.Bool("permanent", perm != nil),
			zap.Error(jobErr),
		)
		if nackErr := msg.Nack(false); nackErr != nil {
			p.logger.Warn("job_nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("job dead-lettered: %w", jobErr)
	}

	job.IncrementRetry()
	if p.jobQueue == nil {
		if nackErr := msg.Nack(true); nackErr != nil {
			p.logger.Warn("job_nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("job failed (will retry): %w", jobErr)
	}

	delay := p.baseDelay << (job.RetryCount - 1)
	notBefore := time.Now().Add(delay)
	job.NotBefore = &notBefore
	if err := p.jobQueue.Enqueue(ctx, job); err != nil {
		if nackErr := msg.Nack(true); nackErr != nil {
			p.logger.Warn("job_nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("failed to re-enqueue job: %w", err)
	}
	if ackErr := msg.Ack(); ackErr != nil {
		p.logger.Warn("job_ack_failed", zap.Error(ackErr))
	}

	p.logger.Info("job_retry_scheduled",
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.Type)),
		zap.Int("retry_count", job.RetryCount),
		zap.Int("max_retries", job.MaxRetries),
		zap.Duration("delay", delay),
	)
	return fmt.Errorf("job failed (will retry): %w", jobErr)
}

// permanentError marks failures that retrying cannot fix
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() error { return e.err }

func permanent(err error) error {
	return &permanentError{err: err}
}
