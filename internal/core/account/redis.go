package account

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const userKeyPrefix = "user:"

// redisHashClient RedisStore 用到的 hash 指令
type redisHashClient interface {
	HGetAll(ctx context.Context, key string) *redis.StringStringMapCmd
	HSetNX(ctx context.Context, key, field string, value interface{}) *redis.BoolCmd
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Close() error
}

// RedisStore 每位使用者一個 hash：user:<username>
type RedisStore struct {
	client redisHashClient
}

// NewRedisStore 連線並測試 Redis
func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// 測試連接
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return newRedisStoreWithClient(client), nil
}

func newRedisStoreWithClient(client redisHashClient) *RedisStore {
	return &RedisStore{client: client}
}

func userKey(username string) string {
	return userKeyPrefix + username
}

func (s *RedisStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	fields, err := s.client.HGetAll(ctx, userKey(username)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrUserNotFound
	}

	u := &User{
		ID:           fields["id"],
		Username:     fields["username"],
		PasswordHash: fields["password"],
		Name:         fields["name"],
	}
	if ts := fields["created_at"]; ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			u.CreatedAt = t
		}
	}
	return u, nil
}

// Insert 以 HSETNX 佔用 username 欄位，確保同名只會寫入一次
func (s *RedisStore) Insert(ctx context.Context, user *User) error {
	key := userKey(user.Username)
	ok, err := s.client.HSetNX(ctx, key, "username", user.Username).Result()
	if err != nil {
		return fmt.Errorf("failed to reserve username: %w", err)
	}
	if !ok {
		return ErrUserExists
	}

	err = s.client.HSet(ctx, key,
		"id", user.ID,
		"password", user.PasswordHash,
		"name", user.Name,
		"created_at", user.CreatedAt.UTC().Format(time.RFC3339),
	).Err()
	if err != nil {
		// 釋放半寫入的帳號
		s.client.Del(ctx, key)
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func (s *RedisStore) Close(context.Context) error {
	return s.client.Close()
}
