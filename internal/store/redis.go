package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"barbershop/internal/model"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "barbershop:conversation:"

// RedisStore keeps conversation records as JSON values in Redis.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps client. A zero ttl keeps records until they are deleted.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func key(chatID int64) string {
	return fmt.Sprintf("%s%d", keyPrefix, chatID)
}

func (s *RedisStore) Get(ctx context.Context, chatID int64) (*model.Conversation, error) {
	val, err := s.client.Get(ctx, key(chatID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get conversation %d: %w", chatID, err)
	}
	var conv model.Conversation
	if err := json.Unmarshal(val, &conv); err != nil {
		return nil, fmt.Errorf("decode conversation %d: %w", chatID, err)
	}
	return &conv, nil
}

func (s *RedisStore) Save(ctx context.Context, conv *model.Conversation) error {
	data, err := json.Marshal(conv)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, key(conv.ChatID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis save conversation %d: %w", conv.ChatID, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, chatID int64) error {
	if err := s.client.Del(ctx, key(chatID)).Err(); err != nil {
		return fmt.Errorf("redis delete conversation %d: %w", chatID, err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
