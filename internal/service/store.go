package service

import (
	"context"

	"kapp-api/internal/domain/meal"
	"kapp-api/internal/domain/user"
)

// Store 仓储集合 + 事务边界，由 internal/repo 提供 gorm 与内存两种实现
type Store interface {
	Users() user.Repository
	Meals() meal.Repository
	// Transaction fn 返回错误时回滚；fn 内只能使用传入的 Store
	Transaction(ctx context.Context, fn func(Store) error) error
}
