package ratelimiter

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"spx_backend/internal/api"
)

// RateLimiterは、アップロードなどの操作の頻度を固定ウィンドウで制限します。
type RateLimiter struct {
	mu        sync.Mutex
	limit     int           // ウィンドウあたりの上限
	interval  time.Duration // どの単位でリセットするか
	count     int
	lastReset time.Time
	now       func() time.Time
}

// NewRateLimiterは新しいRateLimiterのインスタンスを生成します。
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:     limit,
		interval:  interval,
		lastReset: time.Now(),
		now:       time.Now,
	}
}

// Allowは上限に達していなければカウントを進めてtrueを返します。
// 上限に達している場合は次のリセットまでの残り時間とfalseを返します。
func (rl *RateLimiter) Allow() (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	// interval を過ぎたらカウントリセット
	if now.Sub(rl.lastReset) >= rl.interval {
		rl.count = 0
		rl.lastReset = now
	}
	if rl.count >= rl.limit {
		return false, rl.interval - now.Sub(rl.lastReset)
	}
	rl.count++
	return true, 0
}

// Middlewareは上限超過時に429を返すginミドルウェアです。
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, wait := rl.Allow()
		if ok {
			c.Next()
			return
		}
		slog.Warn("rate limit hit", "path", c.FullPath(), "limit", rl.limit, "retry_after", wait)
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, api.ErrorResponse{Detail: "Too many uploads, try again later"})
	}
}
