package draftstore

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"

	"planillas/backend/internal/domain"
)

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(addr string, password string, db int, ttl time.Duration) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Get(ctx context.Context, scope string) (*domain.Draft, bool, error) {
	val, err := s.client.Get(ctx, key(scope)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var d domain.Draft
	if err := json.Unmarshal([]byte(val), &d); err != nil {
		// An unreadable blob is worthless; drop it so the slot is clean.
		_ = s.client.Del(ctx, key(scope)).Err()
		return nil, false, nil
	}
	return &d, true, nil
}

func (s *RedisStore) Set(ctx context.Context, scope string, d *domain.Draft) error {
	if d == nil {
		return nil
	}
	payload, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key(scope), payload, s.ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, scope string) error {
	return s.client.Del(ctx, key(scope)).Err()
}

func key(scope string) string {
	return "draft:" + scope
}
