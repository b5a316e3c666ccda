package ai

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultMaxSessionMessages bounds the history kept per user
	DefaultMaxSessionMessages = 20
	// DefaultSessionTTL is how long a session survives without activity
	DefaultSessionTTL = 2 * time.Hour
)

// ChatService manages in-process chat sessions. Sessions idle for longer than the TTL
// are discarded.
type ChatService struct {
	sessions    map[uuid.UUID]*ChatSession
	mu          sync.RWMutex // Protects concurrent access to sessions map
	maxMessages int
	ttl         time.Duration
	now         func() time.Time
}

// ChatSession represents an active chat session
type ChatSession struct {
	mu           sync.Mutex
	UserID       uuid.UUID
	Messages     []ChatMessage
	CreatedAt    time.Time
	LastActivity time.Time
}

// NewChatService creates a new chat service keeping at most maxMessages per session
func NewChatService(maxMessages int) *ChatService {
	if maxMessages <= 0 {
		maxMessages = DefaultMaxSessionMessages
	}
	return &ChatService{
		sessions:    make(map[uuid.UUID]*ChatSession),
		maxMessages: maxMessages,
		ttl:         DefaultSessionTTL,
		now:         time.Now,
	}
}

// SetSessionTTL changes the idle timeout. Values <= 0 restore the default.
func (s *ChatService) SetSessionTTL(ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	s.mu.Lock()
	s.ttl = ttl
	s.mu.Unlock()
}

// SetClock overrides the time source, for tests
func (s *ChatService) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// GetOrCreateSession gets or creates a chat session for a user. An expired session is
// replaced with an empty one.
func (s *ChatService) GetOrCreateSession(userID uuid.UUID) *ChatSession {
	// Try read lock first for fast path
	s.mu.RLock()
	session, exists := s.sessions[userID]
	live := exists && !s.expired(session, s.now())
	s.mu.RUnlock()
	if live {
		return session
	}

	// Need to create new session, acquire write lock
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	// Double-check after acquiring write lock (another goroutine might have created it)
	if session, exists := s.sessions[userID]; exists && !s.expired(session, now) {
		return session
	}
	s.pruneLocked(now)

	session = &ChatSession{
		UserID:       userID,
		Messages:     make([]ChatMessage, 0),
		CreatedAt:    now,
		LastActivity: now,
	}
	s.sessions[userID] = session
	return session
}

// PruneExpired drops every idle session and reports how many were removed
func (s *ChatService) PruneExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pruneLocked(s.now())
}

// SessionCount reports how many sessions are held
func (s *ChatService) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// pruneLocked requires s.mu to be held for writing
func (s *ChatService) pruneLocked(now time.Time) int {
	removed := 0
	for id, session := range s.sessions {
		if s.expired(session, now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

func (s *ChatService) expired(session *ChatSession, now time.Time) bool {
	session.mu.Lock()
	defer session.mu.Unlock()
	return now.Sub(session.LastActivity) > s.ttl
}

// AddMessage appends a message, dropping the oldest ones beyond the history limit
func (s *ChatService) AddMessage(session *ChatSession, role string, content string) {
	s.mu.RLock()
	now := s.now()
	s.mu.RUnlock()

	session.mu.Lock()
	defer session.mu.Unlock()

	session.Messages = append(session.Messages, ChatMessage{
		Role:    role,
		Content: content,
	})
	if over := len(session.Messages) - s.maxMessages; over > 0 {
		session.Messages = append([]ChatMessage(nil), session.Messages[over:]...)
	}
	session.LastActivity = now
}

// History returns a copy of the session's messages
func (s *ChatService) History(session *ChatSession) []ChatMessage {
	session.mu.Lock()
	defer session.mu.Unlock()
	return append([]ChatMessage(nil), session.Messages...)
}

// CloseSession closes a chat session
func (s *ChatService) CloseSession(userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}
