package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benvon/study-planner/internal/clock"
	"github.com/benvon/study-planner/internal/queue"
)

func TestNewMissedSweepScheduler_RejectsBadSpec(t *testing.T) {
	t.Parallel()

	if _, err := NewMissedSweepScheduler("every night", time.UTC, &mockQueue{}, nil); err == nil {
		t.Error("NewMissedSweepScheduler() error = nil, want invalid spec error")
	}
}

func TestMissedSweepScheduler_Trigger(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("Pacific/Auckland")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	q := &mockQueue{}
	s, err := NewMissedSweepScheduler("", loc, q, nil)
	if err != nil {
		t.Fatalf("NewMissedSweepScheduler() error = %v", err)
	}

	if err := s.Trigger(context.Background()); err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}
	if len(q.enqueued) != 1 {
		t.Fatalf("enqueued = %d, want 1", len(q.enqueued))
	}
	job := q.enqueued[0]
	if job.Type != queue.JobTypeMissedSweep {
		t.Errorf("type = %s, want %s", job.Type, queue.JobTypeMissedSweep)
	}
	if got, want := job.Metadata[MetadataBefore], clock.Today(loc).String(); got != want {
		t.Errorf("before = %v, want %s", got, want)
	}
	if job.NotAfter == nil || !job.NotAfter.After(time.Now()) {
		t.Errorf("NotAfter = %v, want a future expiry", job.NotAfter)
	}
}

func TestMissedSweepScheduler_TriggerEnqueueError(t *testing.T) {
	t.Parallel()

	q := &mockQueue{enqueueFunc: func(context.Context, *queue.Job) error { return errors.New("broker down") }}
	s, err := NewMissedSweepScheduler(DefaultMissedSweepCron, nil, q, nil)
	if err != nil {
		t.Fatalf("NewMissedSweepScheduler() error = %v", err)
	}
	if err := s.Trigger(context.Background()); err == nil {
		t.Error("Trigger() error = nil, want enqueue failure")
	}
}

func TestMissedSweepScheduler_StartStop(t *testing.T) {
	t.Parallel()

	s, err := NewMissedSweepScheduler("@every 1h", time.UTC, &mockQueue{}, nil)
	if err != nil {
		t.Fatalf("NewMissedSweepScheduler() error = %v", err)
	}
	s.Start()
	s.Stop()
}
