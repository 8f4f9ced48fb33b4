package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/medguardian/backend/internal/database"
	"github.com/medguardian/backend/internal/models"
)

const (
	chatRecentKeyPrefix = "chat:user:"
	chatRecentKeySuffix = ":recent"
	chatRecentMaxLen    = 50
	chatRecentTTL       = 1 * time.Hour
)

func chatRecentKey(userID uuid.UUID) string {
	return chatRecentKeyPrefix + userID.String() + chatRecentKeySuffix
}

// PushChatToRecentCache adds a message to the Redis recent cache (newest at
// head). Called after the store insert. LPUSH + LTRIM keeps the last 50.
func PushChatToRecentCache(msg models.ChatMessage) {
	if database.RedisClient == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	key := chatRecentKey(msg.UserID)
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	pipe := database.RedisClient.Pipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, chatRecentMaxLen-1)
	pipe.Expire(ctx, key, chatRecentTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("chat_cache: push failed for user %s: %v", msg.UserID, err)
	}
}

// recentChatsFromCache returns cached messages oldest-first.
// (nil, false) on miss or when Redis is not configured.
func recentChatsFromCache(ctx context.Context, userID uuid.UUID) ([]models.ChatMessage, bool) {
	if database.RedisClient == nil {
		return nil, false
	}

	raw, err := database.RedisClient.LRange(ctx, chatRecentKey(userID), 0, -1).Result()
	if err != nil || len(raw) == 0 {
		return nil, false
	}

	var msgs []models.ChatMessage
	for i := len(raw) - 1; i >= 0; i-- {
		var m models.ChatMessage
		if json.Unmarshal([]byte(raw[i]), &m) != nil {
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, true
}

// ChatsForUserWithCache serves small transcript reads from Redis when
// possible, falling back to the store and warming the cache on a miss.
func ChatsForUserWithCache(ctx context.Context, userID uuid.UUID, limit int) ([]models.ChatMessage, error) {
	if limit > 0 && limit <= chatRecentMaxLen {
		if cached, ok := recentChatsFromCache(ctx, userID); ok {
			if len(cached) > limit {
				cached = cached[len(cached)-limit:]
			}
			return cached, nil
		}
	}

	msgs, err := ChatsForUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	if len(msgs) > 0 {
		warmRecentChatCache(ctx, userID, msgs)
	}
	return msgs, nil
}

// warmRecentChatCache stores messages in Redis (oldest at tail).
func warmRecentChatCache(ctx context.Context, userID uuid.UUID, msgs []models.ChatMessage) {
	if database.RedisClient == nil || len(msgs) == 0 {
		return
	}

	key := chatRecentKey(userID)
	pipe := database.RedisClient.Pipeline()
	for i := len(msgs) - 1; i >= 0; i-- {
		data, err := json.Marshal(msgs[i])
		if err != nil {
			continue
		}
		pipe.RPush(ctx, key, data)
	}
	pipe.LTrim(ctx, key, 0, chatRecentMaxLen-1)
	pipe.Expire(ctx, key, chatRecentTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("chat_cache: warm failed for user %s: %v", userID, err)
	}
}

// InvalidateChatCache drops the cached transcript. Called on logout and
// session expiry so the next login rebuilds from the store.
func InvalidateChatCache(userID uuid.UUID) {
	if database.RedisClient == nil || userID == uuid.Nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := database.RedisClient.Del(ctx, chatRecentKey(userID)).Err(); err != nil {
		log.Printf("chat_cache: invalidate failed for user %s: %v", userID, err)
	}
}
