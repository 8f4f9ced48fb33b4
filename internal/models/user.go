package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Username string `json:"username"`
	FullName string `json:"full_name,omitempty"`
	Phone    string `json:"phone,omitempty"`

	PasswordHash string `json:"-"` // never returned to callers of Authenticate
}
