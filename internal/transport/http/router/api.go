package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"kapp-api/internal/core/auth"
	"kapp-api/internal/core/config"
	"kapp-api/internal/core/server"
	"kapp-api/internal/service"
	"kapp-api/internal/transport/http/ez"
	mdw "kapp-api/internal/transport/http/middleware"
	resp "kapp-api/internal/transport/http/response"
)

// Deps 构建引擎所需依赖
type Deps struct {
	Name     string
	Mode     string
	Log      *zap.Logger
	Svc      *service.Container
	JWT      *auth.JWTer
	Limits   config.Limits
	CORS     []string
	Registry *Registry
}

func (d Deps) logger() *zap.Logger {
	if d.Log != nil {
		return d.Log
	}
	return zap.NewNop()
}

func (d Deps) registry() *Registry {
	if d.Registry != nil {
		return d.Registry
	}
	return DefaultRegistry()
}

// NewAPIEngine 用户端：/api/v1
func NewAPIEngine(d Deps) *gin.Engine {
	r := newEngine(d)
	// 用户端按 IP 限流
	if d.Limits.RequestsPerMinute > 0 {
		r.Use(mdw.RateLimitPerIP(d.Limits.RequestsPerMinute, d.Limits.Burst))
	}
	mountCommon(r, d)

	api := r.Group("/api/v1")
	// 鉴权分组（/me 必须挂这里，才能拿到 userId）
	authUser := api.Group("", mdw.AuthJWT(d.JWT, ""))

	d.registry().MountAPI(ez.New(api, d.Svc), ez.New(authUser, d.Svc))
	return r
}

// newEngine 基座 + 通用保护中间件（顺序：rid → 限流 → 并发 → 体积 → 超时 → 恢复 → 指标 → 日志）
func newEngine(d Deps) *gin.Engine {
	ez.SetupValidator()
	r := server.NewRouter(d.logger(), server.Options{Name: d.Name, Mode: d.Mode, AllowOrigins: d.CORS})
	r.Use(mdw.RequestID())
	return r
}

func mountCommon(r *gin.Engine, d Deps) {
	l := d.logger()
	lim := d.Limits
	if lim.MaxConcurrent > 0 {
		r.Use(mdw.ConcurrencyLimit(lim.MaxConcurrent))
	}
	if lim.MaxBodyBytes > 0 {
		r.Use(mdw.MaxBodyBytes(lim.MaxBodyBytes))
	}
	if lim.TimeoutSec > 0 {
		r.Use(mdw.Timeout(time.Duration(lim.TimeoutSec) * time.Second))
	}
	r.Use(mdw.Recovery(l), mdw.Metrics(), mdw.AccessLog(l))

	// 健康检查
	r.GET("/health", func(c *gin.Context) { resp.Write(c, resp.OK(gin.H{"ok": 1, "app": d.Name})) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// adminRate 管理端全局限速：每分钟额度的 5 倍，不分 IP
func adminRate(lim config.Limits) (rate.Limit, int) {
	perMin := max(lim.RequestsPerMinute, 1) * 5
	return rate.Every(time.Minute / time.Duration(perMin)), max(lim.Burst, 1) * 5
}
