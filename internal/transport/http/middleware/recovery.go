package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	resp "kapp-api/internal/transport/http/response"
)

// Recovery panic 统一转成 500 信封，并记录堆栈
func Recovery(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				l.Error("panic recovered",
					zap.Any("panic", rec),
					zap.String("rid", RequestIDOf(c)),
					zap.String("path", c.Request.URL.Path),
					zap.Stack("stack"),
				)
				resp.Abort(c, resp.Error(resp.CodeServerError, "internal error"))
			}
		}()
		c.Next()
	}
}
