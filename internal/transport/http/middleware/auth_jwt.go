package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"kapp-api/internal/core/auth"
	resp "kapp-api/internal/transport/http/response"
)

// 上下文键
const (
	KeyUserID = "userId"
	KeyRole   = "role"
	KeyClaims = "claims"
)

// AuthJWT 校验 Bearer token；requireRole 非空时要求角色一致
func AuthJWT(j *auth.JWTer, requireRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			resp.Abort(c, resp.Error(resp.CodeUnauthorized, "missing token"))
			return
		}
		claims, err := j.Parse(strings.TrimPrefix(ah, "Bearer "))
		if err != nil {
			resp.Abort(c, resp.Error(resp.CodeUnauthorized, "invalid token"))
			return
		}
		uid, err := claims.UserID()
		if err != nil {
			resp.Abort(c, resp.Error(resp.CodeUnauthorized, "invalid token"))
			return
		}
		if requireRole != "" && claims.Role != requireRole {
			resp.Abort(c, resp.Error(resp.CodeForbidden, "forbidden"))
			return
		}
		c.Set(KeyClaims, claims)
		c.Set(KeyUserID, uid)
		c.Set(KeyRole, claims.Role)
		c.Next()
	}
}

// UserID 取出 AuthJWT 写入的用户 id，未登录为 0
func UserID(c *gin.Context) int64 {
	return c.GetInt64(KeyUserID)
}
