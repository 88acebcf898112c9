package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	resp "kapp-api/internal/transport/http/response"
)

// MaxBodyBytes 限制请求体大小；超限在绑定时报错
func MaxBodyBytes(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > n {
			resp.Abort(c, resp.Error(resp.CodeTooLarge, "request body too large"))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}
