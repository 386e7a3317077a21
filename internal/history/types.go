package history

import (
	"context"
	"errors"
	"time"
)

// Role identifies the author of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single user or assistant message in a conversation. Turns are
// immutable once appended.
type Turn struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	UserID         int64     `json:"user_id"`
	Role           Role      `json:"role"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"created_at"`
}

// ErrUnavailable reports that the backing store could not be reached.
// Callers use errors.Is to classify storage failures.
var ErrUnavailable = errors.New("history store unavailable")

// Store is an append-only log of conversation turns. A conversation exists
// iff it has at least one turn; there is no separate creation step.
type Store interface {
	// Append persists a turn and returns it with ID and CreatedAt filled in.
	Append(ctx context.Context, turn Turn) (Turn, error)
	// Load returns all turns of a conversation in chronological order.
	// Calling Load twice without intervening appends yields identical results.
	Load(ctx context.Context, conversationID string) ([]Turn, error)
	Close() error
}
