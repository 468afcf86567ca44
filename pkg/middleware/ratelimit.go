package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	pkgredis "github.com/Freelancing-tuhin/Hobi-app-server/pkg/redis"
	"github.com/Freelancing-tuhin/Hobi-app-server/pkg/response"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	// Requests per second per client IP (0 = unlimited)
	RequestsPerSecond int
	// Token bucket capacity
	BurstSize int
	// Distributed limiting via Redis; falls back to local on nil client
	UseRedis    bool
	RedisClient *pkgredis.Client
	KeyPrefix   string
	// Stale local entries are dropped after this much inactivity
	EntryTTL        time.Duration
	CleanupInterval time.Duration
}

// DefaultRateLimitConfig returns sensible defaults
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		BurstSize:         50,
		KeyPrefix:         "ratelimit:",
		EntryTTL:          time.Minute,
		CleanupInterval:   time.Minute,
	}
}

// tokenBucketScript implements an atomic token bucket in Redis
const tokenBucketScript = `
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local data = redis.call("HMGET", key, "tokens", "last_update")
local tokens = tonumber(data[1]) or burst
local last_update = tonumber(data[2]) or now

tokens = math.min(burst, tokens + (now - last_update) * rate)

local allowed = 0
if tokens >= 1 then
    tokens = tokens - 1
    allowed = 1
end
redis.call("HMSET", key, "tokens", tokens, "last_update", now)
redis.call("EXPIRE", key, 60)
return allowed
`

type bucketEntry struct {
	mu         sync.Mutex
	tokens     float64
	lastUpdate time.Time
}

// localLimiter is an in-process token bucket keyed by client IP
type localLimiter struct {
	cfg     RateLimitConfig
	entries sync.Map
	stop    chan struct{}

	allowed  uint64
	rejected uint64
}

func newLocalLimiter(cfg RateLimitConfig) *localLimiter {
	rl := &localLimiter{cfg: cfg, stop: make(chan struct{})}
	go rl.cleanup()
	return rl
}

func (rl *localLimiter) allow(key string) bool {
	now := time.Now()
	entry, _ := rl.entries.LoadOrStore(key, &bucketEntry{
		tokens:     float64(rl.cfg.BurstSize),
		lastUpdate: now,
	})
	e := entry.(*bucketEntry)

	e.mu.Lock()
	defer e.mu.Unlock()

	elapsed := now.Sub(e.lastUpdate).Seconds()
	e.tokens = min(float64(rl.cfg.BurstSize), e.tokens+elapsed*float64(rl.cfg.RequestsPerSecond))
	e.lastUpdate = now

	if e.tokens >= 1 {
		e.tokens--
		atomic.AddUint64(&rl.allowed, 1)
		return true
	}
	atomic.AddUint64(&rl.rejected, 1)
	return false
}

func (rl *localLimiter) cleanup() {
	ticker := time.NewTicker(rl.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-rl.cfg.EntryTTL)
			rl.entries.Range(func(key, value interface{}) bool {
				e := value.(*bucketEntry)
				e.mu.Lock()
				if e.lastUpdate.Before(cutoff) {
					rl.entries.Delete(key)
				}
				e.mu.Unlock()
				return true
			})
		case <-rl.stop:
			return
		}
	}
}

// RateLimiter limits requests per client IP. With Redis configured the
// limit is shared across instances; otherwise each instance limits
// independently. Redis errors fail open.
func RateLimiter(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.RequestsPerSecond <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	var local *localLimiter
	useRedis := cfg.UseRedis && cfg.RedisClient != nil
	if !useRedis {
		local = newLocalLimiter(cfg)
	}

	return func(c *gin.Context) {
		key := c.ClientIP()

		var allowed bool
		if useRedis {
			now := float64(time.Now().UnixNano()) / 1e9
			cmd := cfg.RedisClient.EvalWithFallback(c.Request.Context(), "rate_limit", tokenBucketScript,
				[]string{cfg.KeyPrefix + key},
				strconv.Itoa(cfg.RequestsPerSecond),
				strconv.Itoa(cfg.BurstSize),
				strconv.FormatFloat(now, 'f', -1, 64),
			)
			if cmd.Err() != nil {
				c.Next()
				return
			}
			n, _ := cmd.Int64()
			allowed = n == 1
		} else {
			allowed = local.allow(key)
		}

		if !allowed {
			c.Header("Retry-After", "1")
			response.Error(c, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
