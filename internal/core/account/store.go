package account

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUserNotFound 使用者不存在
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists 使用者名稱已被註冊
	ErrUserExists = errors.New("user already exists")
)

// User 帳號資料，欄位名稱與既有 users 集合相容
type User struct {
	ID           string    `bson:"_id" json:"id"`
	Username     string    `bson:"username" json:"username"`
	PasswordHash string    `bson:"password" json:"-"`
	Name         string    `bson:"name" json:"name"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}

// Store 帳號儲存
type Store interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
	Insert(ctx context.Context, user *User) error
	Close(ctx context.Context) error
}
