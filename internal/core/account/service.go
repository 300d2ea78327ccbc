package account

import (
	"context"
	"errors"
	"strings"
	"time"

	"hydro-advisor/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Service 註冊與登入；輸入錯誤為 common.ValidationError，其餘為 *common.CustomError
type Service struct {
	store Store
	cost  int
}

// NewService 創建帳號服務，cost 超出 bcrypt 範圍時使用預設值
func NewService(store Store, cost int) *Service {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Service{store: store, cost: cost}
}

// Register 建立新帳號
func (s *Service) Register(ctx context.Context, username, password, name string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, common.NewValidationError("Email and password are required")
	}

	_, err := s.store.FindByUsername(ctx, username)
	switch {
	case err == nil:
		return nil, common.ErrUserExists
	case !errors.Is(err, ErrUserNotFound):
		return nil, common.ErrInternalError.WithErr(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, common.ErrInternalError.WithErr(err)
	}

	user := &User{
		ID:           common.GenerateUUID(),
		Username:     username,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(name),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.Insert(ctx, user); err != nil {
		if errors.Is(err, ErrUserExists) {
			return nil, common.ErrUserExists
		}
		return nil, common.ErrInternalError.WithErr(err)
	}

	common.LogInfo("User registered", zap.String("user_id", user.ID))
	return user, nil
}

// Login 驗證帳號密碼
func (s *Service) Login(ctx context.Context, username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, common.ErrInvalidCredentials
	}

	user, err := s.store.FindByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		return nil, common.ErrInvalidCredentials
	}
	if err != nil {
		return nil, common.ErrInternalError.WithErr(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, common.ErrInvalidCredentials
	}
	return user, nil
}
