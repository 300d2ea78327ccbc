package account

import (
	"context"
	"sync"
)

// MemoryStore 記憶體儲存，重啟後資料消失
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewMemoryStore 創建記憶體儲存
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]User)}
}

func (s *MemoryStore) FindByUsername(_ context.Context, username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (s *MemoryStore) Insert(_ context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Username]; ok {
		return ErrUserExists
	}
	s.users[user.Username] = *user
	return nil
}

func (s *MemoryStore) Close(context.Context) error { return nil }
