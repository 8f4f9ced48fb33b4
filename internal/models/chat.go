package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatRole identifies who produced a chat turn.
// Valid values: "user", "bot".
type ChatRole string

const (
	RoleUser ChatRole = "user"
	RoleBot  ChatRole = "bot"
)

// Valid reports whether r is a known chat role.
func (r ChatRole) Valid() bool {
	return r == RoleUser || r == RoleBot
}

// ChatMessage is a single append-only chat turn. Messages are never mutated
// or deleted; transcripts are read back ascending by creation time.
type ChatMessage struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"-"`
	Role      ChatRole  `json:"role"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
