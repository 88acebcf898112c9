package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	resp "kapp-api/internal/transport/http/response"
)

const HeaderRateLimitRemaining = "X-Rate-Limit-Remaining"

// RateLimit 全局令牌桶限速
func RateLimit(rps rate.Limit, burst int) gin.HandlerFunc {
	lim := rate.NewLimiter(rps, burst)
	return func(c *gin.Context) {
		if lim.Allow() {
			c.Next()
			return
		}
		resp.Abort(c, resp.Error(resp.CodeTooManyRequests, "too many requests"))
	}
}

type ipLimiter struct {
	lim  *rate.Limiter
	seen time.Time
}

// RateLimitPerIP 每 IP 每分钟 perMinute 次，允许 burst 突发；
// 响应头带剩余令牌数。长时间不活跃的 IP 会被清理。
func RateLimitPerIP(perMinute, burst int) gin.HandlerFunc {
	if burst <= 0 {
		burst = perMinute
	}
	every := rate.Every(time.Minute / time.Duration(max(perMinute, 1)))

	var mu sync.Mutex
	buckets := make(map[string]*ipLimiter)
	lastSweep := time.Now()

	return func(c *gin.Context) {
		now := time.Now()
		ip := c.ClientIP()

		mu.Lock()
		if now.Sub(lastSweep) > 10*time.Minute {
			for k, b := range buckets {
				if now.Sub(b.seen) > 10*time.Minute {
					delete(buckets, k)
				}
			}
			lastSweep = now
		}
		b, ok := buckets[ip]
		if !ok {
			b = &ipLimiter{lim: rate.NewLimiter(every, burst)}
			buckets[ip] = b
		}
		b.seen = now
		allowed := b.lim.AllowN(now, 1)
		remaining := int(math.Max(0, math.Floor(b.lim.TokensAt(now))))
		mu.Unlock()

		c.Header(HeaderRateLimitRemaining, strconv.Itoa(remaining))
		if !allowed {
			resp.Abort(c, resp.Error(resp.CodeTooManyRequests, "too many requests"))
			return
		}
		c.Next()
	}
}
