package user

import (
	"context"

	"kapp-api/internal/domain"
)

// Repository 用户持久化端口，由 internal/repo 实现。
// 查不到时返回 (nil, nil)。
type Repository interface {
	// Save 首次插入分配 id，已有 id 则覆盖
	Save(ctx context.Context, u User) (User, error)
	FindByID(ctx context.Context, id ID) (*User, error)
	FindByEmail(ctx context.Context, email domain.Email) (*User, error)
	ExistsByEmail(ctx context.Context, email domain.Email) (bool, error)
	Delete(ctx context.Context, u User) error
}

// PasswordHasher 密码哈希端口，由 pkg/utils 实现
type PasswordHasher interface {
	Encode(raw string) (string, error)
	Matches(raw, hash string) bool
}
