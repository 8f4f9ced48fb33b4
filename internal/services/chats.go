package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/medguardian/backend/internal/database"
	"github.com/medguardian/backend/internal/models"
)

// AppendChat records one chat turn. Transcripts are append-only: no dedup,
// no transaction beyond the insert's own atomicity.
func AppendChat(ctx context.Context, userID uuid.UUID, role models.ChatRole, message string) error {
	if !role.Valid() {
		return fmt.Errorf("append chat: unknown role %q: %w", role, ErrInvalidArgument)
	}

	conn, err := database.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	msg := models.ChatMessage{
		ID:        uuid.New(),
		UserID:    userID,
		Role:      role,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}

	_, err = conn.ExecContext(ctx, `
		INSERT INTO chats (id, user_id, role, message, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, msg.ID, msg.UserID, string(msg.Role), msg.Message, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("append chat: %v: %w", err, ErrPersistence)
	}

	PushChatToRecentCache(msg)
	return nil
}

// ChatsForUser returns the user's transcript ascending by creation time.
func ChatsForUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.ChatMessage, error) {
	conn, err := database.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.QueryContext(ctx, `
		SELECT id, user_id, role, message, created_at
		FROM chats WHERE user_id = $1
		ORDER BY created_at ASC LIMIT $2
	`, userID, normalizeLimit(limit, 500))
	if err != nil {
		return nil, fmt.Errorf("list chats: %v: %w", err, ErrPersistence)
	}
	defer rows.Close()

	var msgs []models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		var role string
		if err := rows.Scan(&m.ID, &m.UserID, &role, &m.Message, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("list chats: scan: %v: %w", err, ErrPersistence)
		}
		m.Role = models.ChatRole(role)
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list chats: %v: %w", err, ErrPersistence)
	}
	return msgs, nil
}
