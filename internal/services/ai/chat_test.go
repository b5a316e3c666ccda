package ai

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestChatService_ExpiresIdleSessions(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)
	svc := NewChatService(4)
	svc.SetSessionTTL(time.Hour)
	svc.SetClock(func() time.Time { return now })

	idle, active := uuid.New(), uuid.New()
	idleSession := svc.GetOrCreateSession(idle)
	svc.AddMessage(idleSession, RoleUser, "hello")
	activeSession := svc.GetOrCreateSession(active)

	now = now.Add(50 * time.Minute)
	svc.AddMessage(activeSession, RoleUser, "still here")

	now = now.Add(20 * time.Minute)
	if got := svc.GetOrCreateSession(active); got != activeSession {
		t.Error("session with recent activity was replaced")
	}

	fresh := svc.GetOrCreateSession(idle)
	if fresh == idleSession {
		t.Fatal("idle session was returned after its TTL elapsed")
	}
	if h := svc.History(fresh); len(h) != 0 {
		t.Errorf("replacement session history = %v, want empty", h)
	}
	if n := svc.SessionCount(); n != 2 {
		t.Errorf("SessionCount() = %d, want 2", n)
	}
}

func TestChatService_PruneExpired(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)
	svc := NewChatService(0)
	svc.SetClock(func() time.Time { return now })

	for i := 0; i < 5; i++ {
		svc.GetOrCreateSession(uuid.New())
	}
	now = now.Add(DefaultSessionTTL - time.Minute)
	if removed := svc.PruneExpired(); removed != 0 {
		t.Errorf("PruneExpired() before TTL = %d, want 0", removed)
	}

	now = now.Add(2 * time.Minute)
	if removed := svc.PruneExpired(); removed != 5 {
		t.Errorf("PruneExpired() after TTL = %d, want 5", removed)
	}
	if n := svc.SessionCount(); n != 0 {
		t.Errorf("SessionCount() = %d, want 0", n)
	}
}

func TestChatService_CreatingSessionSweepsIdleOnes(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)
	svc := NewChatService(0)
	svc.SetSessionTTL(time.Minute)
	svc.SetClock(func() time.Time { return now })

	for i := 0; i < 10; i++ {
		svc.GetOrCreateSession(uuid.New())
	}
	now = now.Add(2 * time.Minute)
	svc.GetOrCreateSession(uuid.New())

	if n := svc.SessionCount(); n != 1 {
		t.Errorf("SessionCount() = %d, want 1", n)
	}
}
