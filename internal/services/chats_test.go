package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/medguardian/backend/internal/models"
)

func TestChatAppendAndList(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	userID := mustCreateUser(t, "kim", "pw")

	turns := []struct {
		role models.ChatRole
		text string
	}{
		{models.RoleUser, "I have chest pain"},
		{models.RoleBot, "Please consider a heart screening."},
		{models.RoleUser, "How do I book one?"},
	}
	for _, turn := range turns {
		if err := AppendChat(ctx, userID, turn.role, turn.text); err != nil {
			t.Fatalf("AppendChat(%s): %v", turn.role, err)
		}
	}

	msgs, err := ChatsForUser(ctx, userID, 100)
	if err != nil {
		t.Fatalf("ChatsForUser: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}
	// Ascending by creation time.
	for i, turn := range turns {
		if msgs[i].Role != turn.role || msgs[i].Message != turn.text {
			t.Fatalf("position %d = (%s, %q), want (%s, %q)",
				i, msgs[i].Role, msgs[i].Message, turn.role, turn.text)
		}
	}
}

func TestChatListLimit(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	userID := mustCreateUser(t, "liam", "pw")

	for i := 0; i < 5; i++ {
		if err := AppendChat(ctx, userID, models.RoleUser, fmt.Sprintf("msg %d", i)); err != nil {
			t.Fatalf("AppendChat: %v", err)
		}
	}

	msgs, err := ChatsForUser(ctx, userID, 2)
	if err != nil {
		t.Fatalf("ChatsForUser: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("limit ignored: got %d messages, want 2", len(msgs))
	}
}

func TestAppendChatRejectsUnknownRole(t *testing.T) {
	setupTestDB(t)
	userID := mustCreateUser(t, "mona", "pw")

	err := AppendChat(context.Background(), userID, models.ChatRole("system"), "nope")
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("AppendChat(system) error = %v, want ErrInvalidArgument", err)
	}
}
