package account

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis 記憶體內的 hash 指令實作
type fakeRedis struct {
	mu        sync.Mutex
	hashes    map[string]map[string]string
	failHSet  bool
	deleted   []string
	closeHits int
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{hashes: make(map[string]map[string]string)}
}

func (f *fakeRedis) HGetAll(_ context.Context, key string) *redis.StringStringMapCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.hashes[key]))
	for k, v := range f.hashes[key] {
		out[k] = v
	}
	return redis.NewStringStringMapResult(out, nil)
}

func (f *fakeRedis) HSetNX(_ context.Context, key, field string, value interface{}) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.hashes[key]
	if !ok {
		h = make(map[string]string)
		f.hashes[key] = h
	}
	if _, exists := h[field]; exists {
		return redis.NewBoolResult(false, nil)
	}
	h[field] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) HSet(_ context.Context, key string, values ...interface{}) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failHSet {
		return redis.NewIntResult(0, errors.New("connection reset"))
	}
	h, ok := f.hashes[key]
	if !ok {
		h = make(map[string]string)
		f.hashes[key] = h
	}
	var added int64
	for i := 0; i+1 < len(values); i += 2 {
		field := fmt.Sprint(values[i])
		if _, exists := h[field]; !exists {
			added++
		}
		h[field] = fmt.Sprint(values[i+1])
	}
	return redis.NewIntResult(added, nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.hashes[k]; ok {
			delete(f.hashes, k)
			n++
		}
		f.deleted = append(f.deleted, k)
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) Close() error {
	f.closeHits++
	return nil
}

func TestRedisStoreInsertAndFind(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	store := newRedisStoreWithClient(fake)

	_, err := store.FindByUsername(ctx, "grower@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)

	created := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)
	require.NoError(t, store.Insert(ctx, &User{
		ID:           "u-1",
		Username:     "grower@example.com",
		PasswordHash: "hash",
		Name:         "Asha",
		CreatedAt:    created,
	}))
	assert.Equal(t, "hash", fake.hashes["user:grower@example.com"]["password"])

	got, err := store.FindByUsername(ctx, "grower@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.ID)
	assert.Equal(t, "grower@example.com", got.Username)
	assert.Equal(t, "Asha", got.Name)
	assert.True(t, created.Equal(got.CreatedAt))

	require.NoError(t, store.Close(ctx))
	assert.Equal(t, 1, fake.closeHits)
}

func TestRedisStoreRejectsDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	store := newRedisStoreWithClient(fake)

	require.NoError(t, store.Insert(ctx, &User{ID: "u-1", Username: "a@example.com", PasswordHash: "first"}))
	err := store.Insert(ctx, &User{ID: "u-2", Username: "a@example.com", PasswordHash: "second"})
	assert.ErrorIs(t, err, ErrUserExists)

	// 第一筆資料不被覆寫
	assert.Equal(t, "first", fake.hashes["user:a@example.com"]["password"])
	assert.Equal(t, "u-1", fake.hashes["user:a@example.com"]["id"])
}

func TestRedisStoreReleasesReservationOnFailedWrite(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	store := newRedisStoreWithClient(fake)

	fake.failHSet = true
	err := store.Insert(ctx, &User{ID: "u-1", Username: "a@example.com", PasswordHash: "hash"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUserExists)
	assert.Contains(t, err.Error(), "failed to save user")
	assert.Equal(t, []string{"user:a@example.com"}, fake.deleted)

	_, err = store.FindByUsername(ctx, "a@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)

	fake.failHSet = false
	require.NoError(t, store.Insert(ctx, &User{ID: "u-2", Username: "a@example.com", PasswordHash: "hash"}))
	got, err := store.FindByUsername(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u-2", got.ID)
}

func TestRedisStoreWorksWithAccountService(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newRedisStoreWithClient(newFakeRedis()), 4)

	_, err := svc.Register(ctx, "grower@example.com", "pw", "Asha")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "grower@example.com", "pw", "Asha")
	assert.Error(t, err)

	user, err := svc.Login(ctx, "grower@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "Asha", user.Name)
}
