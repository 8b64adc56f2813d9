package domain

import "time"

// ChatRole identifies the author of a conversation turn.
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatTurn is one persisted message of a conversation.
type ChatTurn struct {
	ID        string
	SessionID string
	Channel   string
	Role      ChatRole
	Message   string
	CreatedAt time.Time
}
