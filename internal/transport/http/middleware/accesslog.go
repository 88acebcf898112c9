package middleware

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// 按 key 打码，忽略大小写
var sensitiveQueryKeys = map[string]struct{}{
	"password": {}, "newpassword": {}, "currentpassword": {},
	"token": {}, "access_token": {}, "authorization": {}, "secret": {},
}

const masked = "****"

// maskQuery 返回打码后的副本，不改原 query
func maskQuery(q url.Values) url.Values {
	out := make(url.Values, len(q))
	for k, v := range q {
		if _, ok := sensitiveQueryKeys[strings.ToLower(k)]; ok {
			out[k] = []string{masked}
			continue
		}
		out[k] = v
	}
	return out
}

// AccessLog 每个请求一条摘要日志；5xx 用 Error 级别
func AccessLog(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("rid", RequestIDOf(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", route),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
			zap.String("ua", c.Request.UserAgent()),
			zap.Int("size", max(c.Writer.Size(), 0)),
		}
		if len(c.Request.URL.RawQuery) > 0 {
			fields = append(fields, zap.Any("query", maskQuery(c.Request.URL.Query())))
		}
		if uid := c.GetInt64(KeyUserID); uid > 0 {
			fields = append(fields, zap.Int64("uid", uid))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		lvl := zapcore.InfoLevel
		if status >= http.StatusInternalServerError {
			lvl = zapcore.ErrorLevel
		}
		l.Log(lvl, "http request", fields...)
	}
}
