package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/studybot/internal/domain"
)

// historyLimit bounds the turns a session keeps in memory.
const historyLimit = 10

// Pending is the input a session is waiting for, if any.
type Pending int

const (
	PendingNone Pending = iota
	// PendingCreate: the next message is the "days time weeks" answer.
	PendingCreate
	// PendingDeleteAll: the next message confirms or cancels clearing the schedule.
	PendingDeleteAll
)

func (p Pending) String() string {
	switch p {
	case PendingCreate:
		return "create"
	case PendingDeleteAll:
		return "confirm-delete-all"
	default:
		return "none"
	}
}

// Session is the conversation state of one channel.
type Session struct {
	ID      string
	Channel string

	mu      sync.Mutex
	pending Pending
	history []domain.ChatTurn
}

func newSession(channel string) *Session {
	return &Session{ID: uuid.NewString(), Channel: channel}
}

// Pending returns the input the session is waiting for.
func (s *Session) Pending() Pending {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// History returns a copy of the most recent turns, oldest first.
func (s *Session) History() []domain.ChatTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ChatTurn(nil), s.history...)
}

// remember must be called with s.mu held.
func (s *Session) remember(role domain.ChatRole, msg string, at time.Time) {
	s.history = append(s.history, domain.ChatTurn{
		SessionID: s.ID,
		Channel:   s.Channel,
		Role:      role,
		Message:   msg,
		CreatedAt: at,
	})
	if over := len(s.history) - historyLimit; over > 0 {
		s.history = append(s.history[:0:0], s.history[over:]...)
	}
}
