package repository

import (
	"context"
	"errors"

	"github.com/alexanderramin/studybot/internal/domain"
)

// ErrNoChange can be returned from a Mutate callback to skip the write.
var ErrNoChange = errors.New("no change")

// MutateFunc receives the current events and returns the events to persist.
type MutateFunc func(events []domain.Event) ([]domain.Event, error)

// ScheduleRepo is the persisted list of calendar events.
type ScheduleRepo interface {
	Load(ctx context.Context) ([]domain.Event, error)
	Save(ctx context.Context, events []domain.Event) error
	// Mutate runs fn as one read-modify-write step while holding the store lock.
	Mutate(ctx context.Context, fn MutateFunc) error
}

type ChatLogRepo interface {
	Append(ctx context.Context, turn *domain.ChatTurn) error
	ListRecent(ctx context.Context, limit int) ([]*domain.ChatTurn, error)
	ListBySession(ctx context.Context, sessionID string, limit int) ([]*domain.ChatTurn, error)
	DeleteBySession(ctx context.Context, sessionID string) error
}
