package router

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/petcare-next/internal/http/response"
	"github.com/petcare-next/internal/i18n"
	"github.com/petcare-next/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitKeyFunc 生成限流 key 的函数
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 固定窗口限流规则。FailOpen 为 true 时 Redis 不可用直接放行，否则拒绝请求
type RateLimitRule struct {
	Prefix        string
	WindowSeconds int
	MaxRequests   int
	MessageKey    string
	FailOpen      bool
}

func (r RateLimitRule) enabled() bool {
	return r.WindowSeconds > 0 && r.MaxRequests > 0
}

// 计数与过期在同一脚本内完成，避免 INCR 后未设置 TTL 的永久 key
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("TTL", KEYS[1])}
`)

// RateLimitMiddleware Redis 固定窗口限流，client 为空或规则未配置时不限流
func RateLimitMiddleware(client *redis.Client, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || !rule.enabled() {
			c.Next()
			return
		}
		key := rule.key(c, keyFunc)
		counters, err := fixedWindowScript.Run(c.Request.Context(), client, []string{key}, rule.WindowSeconds).Int64Slice()
		if err == nil && len(counters) < 2 {
			err = fmt.Errorf("unexpected rate limit reply length %d", len(counters))
		}
		if err != nil {
			logger.Warnw("rate_limit_unavailable", "key", key, "fail_open", rule.FailOpen, "error", err)
			if rule.FailOpen {
				c.Next()
				return
			}
			response.Error(c, response.CodeInternal, i18n.T(i18n.ResolveLocale(c), "error.rate_limit_unavailable"))
			c.Abort()
			return
		}

		count, ttl := counters[0], counters[1]
		c.Header("X-RateLimit-Limit", strconv.Itoa(rule.MaxRequests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining(int64(rule.MaxRequests), count), 10))
		if count <= int64(rule.MaxRequests) {
			c.Next()
			return
		}

		wait := retryAfterSeconds(ttl, rule.WindowSeconds)
		c.Header("Retry-After", strconv.Itoa(wait))
		msgKey := strings.TrimSpace(rule.MessageKey)
		if msgKey == "" {
			msgKey = "error.rate_limited"
		}
		response.Error(c, response.CodeTooManyRequests, i18n.Sprintf(i18n.ResolveLocale(c), msgKey, wait))
		c.Abort()
	}
}

func (r RateLimitRule) key(c *gin.Context, keyFunc RateLimitKeyFunc) string {
	key := ""
	if keyFunc != nil {
		key = strings.TrimSpace(keyFunc(c))
	}
	if key == "" {
		key = c.ClientIP()
	}
	if r.Prefix == "" {
		return key
	}
	return r.Prefix + ":" + key
}

func remaining(limit, count int64) int64 {
	if count >= limit {
		return 0
	}
	return limit - count
}

// retryAfterSeconds TTL 缺失（-1/-2）时按整个窗口等待，至少 1 秒
func retryAfterSeconds(ttl int64, windowSeconds int) int {
	wait := int(ttl)
	if wait < 1 {
		wait = windowSeconds
	}
	if wait < 1 {
		wait = 1
	}
	return wait
}

// KeyByIP 使用 IP 作为限流 key
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

// KeyByAccount 使用令牌账号作为限流 key，未登录时退回 IP
func KeyByAccount(c *gin.Context) string {
	accountID := c.GetUint(accountIDContextKey)
	if accountID == 0 {
		return c.ClientIP()
	}
	return fmt.Sprintf("%s:%d", c.GetString(accountRoleContextKey), accountID)
}

// KeyByAccountAndParam 使用账号 + 路径参数作为限流 key
func KeyByAccountAndParam(param string) RateLimitKeyFunc {
	return func(c *gin.Context) string {
		value := strings.TrimSpace(c.Param(param))
		if value == "" {
			return KeyByAccount(c)
		}
		return KeyByAccount(c) + "|" + value
	}
}
