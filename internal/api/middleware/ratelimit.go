package middleware

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/d60-Lab/socialgraph/config"
	"github.com/d60-Lab/socialgraph/pkg/response"
)

// RateLimit 全局令牌桶，RPS <= 0 时不限流
func RateLimit(cfg config.RateLimit) gin.HandlerFunc {
	if cfg.RPS <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = int(cfg.RPS) + 1
	}
	limiter := rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			response.TooManyRequests(c)
			return
		}
		c.Next()
	}
}
