package middleware

import (
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"hydro-advisor/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimiter 依用戶端分開計算的令牌桶
type RateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	capacity float64
	rate     float64 // 每秒補充的令牌
	window   time.Duration
	swept    time.Time
	now      func() time.Time
}

type bucket struct {
	tokens   float64
	lastTime time.Time
}

// NewRateLimiter 創建新的限流器：每個 window 最多 requests 次
func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		buckets:  make(map[string]*bucket),
		capacity: float64(requests),
		rate:     float64(requests) / window.Seconds(),
		window:   window,
		swept:    time.Now(),
		now:      time.Now,
	}
}

// Allow 檢查 key 是否還有可用令牌
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.swept) > rl.window {
		rl.sweep(now)
	}

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: rl.capacity, lastTime: now}
		rl.buckets[key] = b
	}

	// 依經過時間補充令牌，保留小數避免高頻請求時永遠補不到
	elapsed := now.Sub(b.lastTime).Seconds()
	b.lastTime = now
	b.tokens = math.Min(rl.capacity, b.tokens+elapsed*rl.rate)

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Len 目前追蹤的用戶端數
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// sweep 移除閒置超過一個 window 的用戶端，此時其令牌必定已補滿
func (rl *RateLimiter) sweep(now time.Time) int {
	rl.swept = now
	removed := 0
	for key, b := range rl.buckets {
		if now.Sub(b.lastTime) > rl.window {
			delete(rl.buckets, key)
			removed++
		}
	}
	return removed
}

// RateLimit 限流中間件，以用戶端 IP 為單位
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			common.LogInfo("Rate limit exceeded",
				zap.String("ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
			)

			c.Header("Retry-After", fmt.Sprintf("%d", int(limiter.window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, common.ErrTooManyRequests.Response(false))
			return
		}

		c.Next()
	}
}
