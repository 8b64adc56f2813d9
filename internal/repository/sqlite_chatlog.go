package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/studybot/internal/db"
	"github.com/alexanderramin/studybot/internal/domain"
)

// Fixed-width UTC timestamps keep lexical and chronological order aligned.
const chatTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteChatLogRepo implements ChatLogRepo on the chat_log table.
type SQLiteChatLogRepo struct {
	db db.DBTX
}

func NewSQLiteChatLogRepo(conn db.DBTX) *SQLiteChatLogRepo {
	return &SQLiteChatLogRepo{db: conn}
}

func (r *SQLiteChatLogRepo) Append(ctx context.Context, turn *domain.ChatTurn) error {
	query := `INSERT INTO chat_log (id, session_id, channel, role, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		turn.ID,
		turn.SessionID,
		nullableString(turn.Channel),
		string(turn.Role),
		turn.Message,
		turn.CreatedAt.UTC().Format(chatTimeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting chat turn: %w", err)
	}
	return nil
}

// ListRecent returns up to limit of the newest turns, oldest first.
func (r *SQLiteChatLogRepo) ListRecent(ctx context.Context, limit int) ([]*domain.ChatTurn, error) {
	query := `SELECT id, session_id, channel, role, message, created_at FROM (
			SELECT id, session_id, channel, role, message, created_at, rowid AS rid
			FROM chat_log ORDER BY created_at DESC, rowid DESC LIMIT ?
		) ORDER BY created_at, rid`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing recent chat turns: %w", err)
	}
	defer rows.Close()
	return scanTurns(rows)
}

// ListBySession returns up to limit of the newest turns of one session, oldest first.
func (r *SQLiteChatLogRepo) ListBySession(ctx context.Context, sessionID string, limit int) ([]*domain.ChatTurn, error) {
	query := `SELECT id, session_id, channel, role, message, created_at FROM (
			SELECT id, session_id, channel, role, message, created_at, rowid AS rid
			FROM chat_log WHERE session_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?
		) ORDER BY created_at, rid`
	rows, err := r.db.QueryContext(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing chat turns by session: %w", err)
	}
	defer rows.Close()
	return scanTurns(rows)
}

func (r *SQLiteChatLogRepo) DeleteBySession(ctx context.Context, sessionID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM chat_log WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("deleting chat turns: %w", err)
	}
	return nil
}

func scanTurns(rows *sql.Rows) ([]*domain.ChatTurn, error) {
	var turns []*domain.ChatTurn
	for rows.Next() {
		var t domain.ChatTurn
		var channel sql.NullString
		var role, createdAt string
		if err := rows.Scan(&t.ID, &t.SessionID, &channel, &role, &t.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning chat turn: %w", err)
		}
		t.Channel = channel.String
		t.Role = domain.ChatRole(role)
		ts, err := time.Parse(chatTimeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing chat turn time: %w", err)
		}
		t.CreatedAt = ts
		turns = append(turns, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chat turns: %w", err)
	}
	return turns, nil
}
