package repo

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"kapp-api/internal/core/cache"
	"kapp-api/internal/core/database"
	"kapp-api/internal/domain/meal"
	"kapp-api/internal/domain/user"
	mealmodel "kapp-api/internal/feature/meal"
	usermodel "kapp-api/internal/feature/user"
	"kapp-api/internal/service"
)

// GormStore service.Store 的 gorm 实现；配置了缓存时餐食按日读穿 redis
type GormStore struct {
	db       *gorm.DB
	cache    cache.Loader
	cacheTTL time.Duration
	log      *zap.Logger
	// pending 非空表示处于事务内
	pending *pendingKeys
}

type StoreOption func(*GormStore)

func WithMealCache(c cache.Loader, ttl time.Duration) StoreOption {
	return func(s *GormStore) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

func WithLogger(l *zap.Logger) StoreOption {
	return func(s *GormStore) { s.log = l }
}

func NewGormStore(db *gorm.DB, opts ...StoreOption) *GormStore {
	s := &GormStore{db: db, log: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Migrate 建表；所有模型集中在这里
func (s *GormStore) Migrate() error {
	models := append(usermodel.Models(), mealmodel.Models()...)
	return database.Migrate(s.db, models...)
}

func (s *GormStore) Users() user.Repository { return NewUserRepo(s.db) }

func (s *GormStore) Meals() meal.Repository {
	base := NewMealRepo(s.db)
	if s.cache == nil || s.cacheTTL <= 0 {
		return base
	}
	r := NewCachedMealRepo(base, s.cache, s.cacheTTL, s.log)
	if s.pending != nil {
		return r.inTx(s.pending)
	}
	return r
}

func (s *GormStore) Transaction(ctx context.Context, fn func(service.Store) error) error {
	return s.afterCommit(ctx, func(p *pendingKeys) error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(&GormStore{db: tx, cache: s.cache, cacheTTL: s.cacheTTL, log: s.log, pending: p})
		})
	})
}

// afterCommit 执行 run，成功返回后再删除事务里累积的缓存 key；
// 嵌套事务并入最外层，由外层统一删除
func (s *GormStore) afterCommit(ctx context.Context, run func(*pendingKeys) error) error {
	if s.pending != nil {
		return run(s.pending)
	}
	p := &pendingKeys{}
	if err := run(p); err != nil {
		return err
	}
	p.flush(context.WithoutCancel(ctx), s.cache, s.log)
	return nil
}
