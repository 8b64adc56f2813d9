package service

import (
	"context"
	"time"

	"github.com/alexanderramin/studybot/internal/contract"
	"github.com/alexanderramin/studybot/internal/domain"
)

type ScheduleService interface {
	Create(ctx context.Context, req contract.GenerateRequest) (*contract.GenerateResponse, error)
	List(ctx context.Context) ([]domain.Event, error)
	Update(ctx context.Context, req contract.UpdateRequest) (*contract.UpdateResult, error)
	Delete(ctx context.Context, req contract.DeleteRequest) (*contract.DeleteResult, error)
	RecordProgress(ctx context.Context, req contract.ProgressRequest) (*contract.ProgressResult, error)
	ViewProgress(ctx context.Context) (*contract.ProgressOverview, error)
}

type ReminderService interface {
	ScheduleAll(ctx context.Context, req contract.ReminderRequest) (*contract.ReminderResult, error)
	ScheduleDate(ctx context.Context, req contract.ReminderRequest) (*contract.ReminderResult, error)
	// Restore re-arms persisted reminders that have not fired yet and
	// returns how many were newly armed. Armed jobs whose event or stored
	// reminder time is gone from the schedule are cancelled.
	Restore(ctx context.Context) (int, error)
	ReminderCanceller
}

// ReminderCanceller drops the armed reminder of a date. It reports whether
// one was armed.
type ReminderCanceller interface {
	Cancel(date string) bool
}

// Exchange is one user message and the reply it produced.
type Exchange struct {
	SessionID string
	Channel   string
	User      string
	Assistant string
	At        time.Time
}

type ChatLogService interface {
	RecordExchange(ctx context.Context, ex Exchange) error
	Recent(ctx context.Context, limit int) ([]*domain.ChatTurn, error)
	SessionHistory(ctx context.Context, sessionID string, limit int) ([]*domain.ChatTurn, error)
	ClearSession(ctx context.Context, sessionID string) error
}

// JobScheduler runs one-shot jobs. ScheduleOnce returns false when a job
// with the same key is already pending; Cancel reports whether one was.
type JobScheduler interface {
	ScheduleOnce(key string, at time.Time, job func()) bool
	Cancel(key string) bool
}
