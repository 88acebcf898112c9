// Package app 进程装配：日志、存储、缓存、JWT 与用例容器，三个入口共用。
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"kapp-api/internal/core/auth"
	"kapp-api/internal/core/cache"
	"kapp-api/internal/core/config"
	"kapp-api/internal/core/database"
	"kapp-api/internal/core/logger"
	"kapp-api/internal/domain"
	"kapp-api/internal/repo"
	"kapp-api/internal/repo/memory"
	"kapp-api/internal/service"
	"kapp-api/internal/transport/http/router"
	"kapp-api/pkg/utils"
)

// NewLogger 按配置构建 zap；生产环境默认 JSON
func NewLogger(cfg *config.Config) (*zap.Logger, func()) {
	r := cfg.Log.Rotate
	return logger.Build(logger.Options{
		Level:       cfg.Log.Level,
		JSON:        cfg.Log.JSON,
		AddCaller:   true,
		Development: cfg.App.Env != "prod",
		App:         cfg.App.Name,
		Rotate: logger.FileRotate{
			Enable:     r.Enable,
			Filename:   r.Filename,
			MaxSizeMB:  r.MaxSizeMB,
			MaxBackups: r.MaxBackups,
			MaxAgeDays: r.MaxAgeDays,
			Compress:   r.Compress,
		},
	})
}

// Runtime 一个进程的全部依赖；Close 逆序释放
type Runtime struct {
	Cfg   *config.Config
	Log   *zap.Logger
	JWT   *auth.JWTer
	Clock domain.Clock
	Store service.Store
	Svc   *service.Container

	closers []func()
}

func Open(ctx context.Context, cfg *config.Config, l *zap.Logger) (*Runtime, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", cfg.App.Timezone, err)
	}
	rt := &Runtime{Cfg: cfg, Log: l, Clock: domain.SystemClock{Loc: loc}}

	store, err := rt.openStore(ctx)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Store = store

	rt.JWT = &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    cfg.TokenTTL(),
		Now:    rt.Clock.Now,
	}
	rt.Svc = service.NewContainer(store, service.Deps{
		Clock:         rt.Clock,
		Hasher:        utils.BcryptHasher{},
		JWT:           rt.JWT,
		AdminEmails:   cfg.JWT.AdminEmails,
		MaxSearchDays: cfg.Limits.SearchMaxDays,
		Log:           l,
	})
	return rt, nil
}

func (rt *Runtime) openStore(ctx context.Context) (service.Store, error) {
	cfg := rt.Cfg
	if cfg.DB.Driver == "memory" {
		rt.Log.Warn("using in-memory store, data is lost on restart")
		return memory.New(), nil
	}

	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
		Logger:             rt.Log,
	})
	if err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		rt.closers = append(rt.closers, func() { _ = sqlDB.Close() })
	}
	rt.Log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	opts := []repo.StoreOption{repo.WithLogger(rt.Log)}
	if cfg.Redis.Addr != "" && cfg.MealCacheTTL() > 0 {
		c := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		rt.closers = append(rt.closers, func() { _ = c.Close() })
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		// 连不上也继续：读穿缓存失败会回源
		if err := c.Ping(pctx); err != nil {
			rt.Log.Warn("redis unavailable, meal cache will fall back to db", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		} else {
			rt.Log.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
		}
		opts = append(opts, repo.WithMealCache(c, cfg.MealCacheTTL()))
	}

	store := repo.NewGormStore(db, opts...)
	if cfg.DB.AutoMigrate {
		if err := store.Migrate(); err != nil {
			return nil, fmt.Errorf("automigrate: %w", err)
		}
		rt.Log.Info("automigrate done")
	}
	return store, nil
}

// RouterDeps 供 router 构建引擎
func (rt *Runtime) RouterDeps() router.Deps {
	mode := gin.DebugMode
	if rt.Cfg.App.Env == "prod" {
		mode = gin.ReleaseMode
	}
	return router.Deps{
		Name:   rt.Cfg.App.Name,
		Mode:   mode,
		Log:    rt.Log,
		Svc:    rt.Svc,
		JWT:    rt.JWT,
		Limits: rt.Cfg.Limits,
		CORS:   rt.Cfg.CORS.AllowOrigins,
	}
}

// Close 可重复调用
func (rt *Runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}
