// Package service 应用层：组合领域服务、事务边界、JWT 签发与业务指标。
package service

import (
	"context"

	"go.uber.org/zap"

	"kapp-api/internal/core/auth"
	"kapp-api/internal/domain"
	"kapp-api/internal/domain/meal"
	"kapp-api/internal/domain/user"
)

// Deps 与存储无关的依赖
type Deps struct {
	Clock  domain.Clock
	Hasher user.PasswordHasher
	JWT    *auth.JWTer
	// AdminEmails 登录时获得 admin 角色的邮箱（忽略大小写）
	AdminEmails []string
	// MaxSearchDays 搜索日期区间最多覆盖的天数（含两端），0 用默认值
	MaxSearchDays int
	Log           *zap.Logger
}

const DefaultMaxSearchDays = 92

// Container 每个请求拿到的用例集合；事务内会换成绑定 tx 的副本
type Container struct {
	store Store
	deps  Deps

	Auth  *AuthService
	Meals *MealService
}

func NewContainer(store Store, deps Deps) *Container {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = domain.SystemClock{}
	}
	if deps.MaxSearchDays <= 0 {
		deps.MaxSearchDays = DefaultMaxSearchDays
	}
	return build(store, deps)
}

func build(store Store, deps Deps) *Container {
	users := user.NewService(store.Users(), deps.Hasher, deps.Clock)
	meals := meal.NewService(store.Meals(), deps.Clock)
	return &Container{
		store: store,
		deps:  deps,
		Auth:  newAuthService(users, deps),
		Meals: newMealService(meals, deps),
	}
}

// Transaction 在同一事务里执行 fn，fn 拿到的是绑定事务的 Container
func (c *Container) Transaction(ctx context.Context, fn func(*Container) error) error {
	return c.store.Transaction(ctx, func(tx Store) error {
		return fn(build(tx, c.deps))
	})
}

func (c *Container) Clock() domain.Clock { return c.deps.Clock }

func (c *Container) Log() *zap.Logger { return c.deps.Log }
