package queue

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func receive(t *testing.T, msgs <-chan *Message) *Message {
	t.Helper()
	select {
	case msg := <-msgs:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestMemoryQueue_DeliverAckNack(t *testing.T) {
	t.Parallel()

	q := NewMemoryQueue(8, nil)
	defer q.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs, _, err := q.Consume(ctx, 1)
	if err != nil {
		t.Fatalf("Consume() error = %v", err)
	}

	job := NewJob(JobTypeMissedSweep, uuid.Nil)
	if err := q.Enqueue(ctx, job); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	first := receive(t, msgs)
	if first.GetJob().ID != job.ID {
		t.Fatalf("got job %s, want %s", first.GetJob().ID, job.ID)
	}
	if err := first.Nack(true); err != nil {
		t.Fatalf("Nack(requeue) error = %v", err)
	}

	again := receive(t, msgs)
	if again.GetJob().ID != job.ID {
		t.Fatalf("requeued job = %s, want %s", again.GetJob().ID, job.ID)
	}
	if err := again.Ack(); err != nil {
		t.Fatalf("Ack() error = %v", err)
	}
	if err := again.Ack(); err == nil {
		t.Error("second Ack() error = nil, want unknown tag")
	}
}

func TestMemoryQueue_DeadLetterAndPurge(t *testing.T) {
	t.Parallel()

	q := NewMemoryQueue(8, nil)
	defer q.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	msgs, _, _ := q.Consume(ctx, 1)

	old := NewJob(JobTypeProgressSync, uuid.New())
	old.CreatedAt = time.Now().Add(-48 * time.Hour)
	fresh := NewJob(JobTypeProgressSync, uuid.New())
	for _, j := range []*Job{old, fresh} {
		if err := q.Enqueue(ctx, j); err != nil {
			t.Fatalf("Enqueue() error = %v", err)
		}
		if err := receive(t, msgs).Nack(false); err != nil {
			t.Fatalf("Nack() error = %v", err)
		}
	}
	if n := len(q.DeadLetters()); n != 2 {
		t.Fatalf("dead letters = %d, want 2", n)
	}

	purged, err := q.PurgeOlderThan(ctx, 24*time.Hour)
	if err != nil || purged != 1 {
		t.Fatalf("PurgeOlderThan() = %d, %v, want 1", purged, err)
	}
	if dead := q.DeadLetters(); len(dead) != 1 || dead[0].ID != fresh.ID {
		t.Errorf("remaining dead letters = %+v, want only the fresh job", dead)
	}
}

func TestMemoryQueue_NotBeforeAndExpiry(t *testing.T) {
	t.Parallel()

	q := NewMemoryQueue(8, nil)
	defer q.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	msgs, _, _ := q.Consume(ctx, 1)

	expired := NewJob(JobTypeMissedSweep, uuid.Nil)
	past := time.Now().Add(-time.Minute)
	expired.NotAfter = &past
	_ = q.Enqueue(ctx, expired)

	delayed := NewJob(JobTypeMissedSweep, uuid.Nil)
	notBefore := time.Now().Add(50 * time.Millisecond)
	delayed.NotBefore = &notBefore
	_ = q.Enqueue(ctx, delayed)

	msg := receive(t, msgs)
	if msg.GetJob().ID != delayed.ID {
		t.Fatalf("got %s, want the delayed job (expired job should be dropped)", msg.GetJob().ID)
	}
	if time.Now().Before(notBefore) {
		t.Error("delayed job delivered before NotBefore")
	}
}

func TestMemoryQueue_Close(t *testing.T) {
	t.Parallel()

	q := NewMemoryQueue(1, nil)
	msgs, _, _ := q.Consume(context.Background(), 1)
	if err := q.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, ok := <-msgs; ok {
		t.Error("message channel still open after Close")
	}
	if err := q.Enqueue(context.Background(), NewJob(JobTypeMissedSweep, uuid.Nil)); err != ErrQueueClosed {
		t.Errorf("Enqueue() after Close error = %v, want ErrQueueClosed", err)
	}
	if err := q.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() after Close error = nil")
	}
}
