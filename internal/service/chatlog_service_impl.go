package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/studybot/internal/db"
	"github.com/alexanderramin/studybot/internal/domain"
	"github.com/alexanderramin/studybot/internal/repository"
)

type chatLogService struct {
	turns repository.ChatLogRepo
	uow   db.UnitOfWork
	opts  options
}

func NewChatLogService(turns repository.ChatLogRepo, uow db.UnitOfWork, opts ...Option) ChatLogService {
	return &chatLogService{turns: turns, uow: uow, opts: buildOptions("chat_log_service", opts)}
}

// RecordExchange stores the user turn and the reply together or not at all.
func (s *chatLogService) RecordExchange(ctx context.Context, ex Exchange) error {
	at := ex.At
	if at.IsZero() {
		at = s.opts.now()
	}
	at = at.UTC()

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txTurns := repository.NewSQLiteChatLogRepo(tx)
		for _, turn := range []*domain.ChatTurn{
			{Role: domain.RoleUser, Message: ex.User},
			{Role: domain.RoleAssistant, Message: ex.Assistant},
		} {
			turn.ID = uuid.New().String()
			turn.SessionID = ex.SessionID
			turn.Channel = ex.Channel
			turn.CreatedAt = at
			if err := txTurns.Append(ctx, turn); err != nil {
				return fmt.Errorf("recording %s turn: %w", turn.Role, err)
			}
		}
		return nil
	})
}

func (s *chatLogService) Recent(ctx context.Context, limit int) ([]*domain.ChatTurn, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d: %w", limit, ErrInvalidInput)
	}
	return s.turns.ListRecent(ctx, limit)
}

func (s *chatLogService) SessionHistory(ctx context.Context, sessionID string, limit int) ([]*domain.ChatTurn, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d: %w", limit, ErrInvalidInput)
	}
	return s.turns.ListBySession(ctx, sessionID, limit)
}

// ClearSession deletes every stored turn of one chat session.
func (s *chatLogService) ClearSession(ctx context.Context, sessionID string) (err error) {
	fields := map[string]any{"session_id": sessionID}
	defer observe(ctx, s.opts.observer, "clear-chat-session", time.Now(), fields, &err)

	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("session id is required: %w", ErrInvalidInput)
	}
	if err := s.turns.DeleteBySession(ctx, sessionID); err != nil {
		return fmt.Errorf("clearing chat session: %w", err)
	}
	return nil
}
