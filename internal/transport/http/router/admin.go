package router

import (
	"github.com/gin-gonic/gin"

	"kapp-api/internal/core/auth"
	"kapp-api/internal/transport/http/ez"
	mdw "kapp-api/internal/transport/http/middleware"
)

// NewAdminEngine 管理端：/admin/v1，统一要求 admin 角色
func NewAdminEngine(d Deps) *gin.Engine {
	r := newEngine(d)
	if d.Limits.RequestsPerMinute > 0 {
		r.Use(mdw.RateLimit(adminRate(d.Limits)))
	}
	mountCommon(r, d)

	admin := r.Group("/admin/v1", mdw.AuthJWT(d.JWT, auth.RoleAdmin))
	d.registry().MountAdmin(ez.New(admin, d.Svc))
	return r
}
