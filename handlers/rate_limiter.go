package handlers

import (
	"net/http"
	"strconv"
	"sync"

	"costume-voting-backend/database"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// 全局限流器状态
var (
	rateLimitEnabled bool
	rateLimitRPS     rate.Limit
	rateLimitBurst   int

	clientLimiters = make(map[string]*rate.Limiter)
	limitersLock   sync.Mutex

	limitStatistics = map[string]int64{}
	limitStatsLock  sync.RWMutex
)

// InitRateLimiter 从环境变量读取限流配置
func InitRateLimiter() {
	rateLimitEnabled = database.GetEnv("ENABLE_RATE_LIMIT", "") == "true"

	rps := 10
	if v, err := strconv.Atoi(database.GetEnv("RATE_LIMIT_RPS", "")); err == nil && v > 0 {
		rps = v
	}
	rateLimitRPS = rate.Limit(rps)
	rateLimitBurst = rps * 2

	limitStatsLock.Lock()
	limitStatistics = map[string]int64{"total": 0, "allowed": 0, "rejected": 0}
	limitStatsLock.Unlock()
}

// clientLimiter 返回某个客户端IP的令牌桶，按需创建
func clientLimiter(ip string) *rate.Limiter {
	limitersLock.Lock()
	defer limitersLock.Unlock()

	limiter, ok := clientLimiters[ip]
	if !ok {
		limiter = rate.NewLimiter(rateLimitRPS, rateLimitBurst)
		clientLimiters[ip] = limiter
	}
	return limiter
}

// RateLimitMiddleware 按客户端IP限流的中间件
func RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rateLimitEnabled {
			c.Next()
			return
		}

		limitStatsLock.Lock()
		limitStatistics["total"]++
		limitStatsLock.Unlock()

		if !clientLimiter(c.ClientIP()).Allow() {
			limitStatsLock.Lock()
			limitStatistics["rejected"]++
			limitStatsLock.Unlock()

			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, please slow down"})
			c.Abort()
			return
		}

		limitStatsLock.Lock()
		limitStatistics["allowed"]++
		limitStatsLock.Unlock()

		c.Next()
	}
}

// GetRateLimiterStats 返回限流统计信息
func GetRateLimiterStats(c *gin.Context) {
	limitStatsLock.RLock()
	stats := gin.H{
		"enabled":          rateLimitEnabled,
		"rps":              float64(rateLimitRPS),
		"burst":            rateLimitBurst,
		"totalRequests":    limitStatistics["total"],
		"allowedRequests":  limitStatistics["allowed"],
		"rejectedRequests": limitStatistics["rejected"],
	}
	limitStatsLock.RUnlock()

	c.JSON(http.StatusOK, stats)
}
