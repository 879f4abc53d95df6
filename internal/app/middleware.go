package app

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const loggerKey = "logger"

// RequestLogger stores a request-scoped logger in the context and logs
// each completed request.
func RequestLogger(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		log := base.With(
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
		)
		c.Set(loggerKey, log)

		c.Next()

		fields := []zap.Field{
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if teacher := c.Param("id"); teacher != "" {
			fields = append(fields, zap.String("teacher_id", teacher))
		}
		if caller := c.GetString(callerKey); caller != "" {
			fields = append(fields, zap.String("caller_id", caller))
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			log.Error("request", fields...)
		case c.Writer.Status() >= http.StatusBadRequest:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}

func loggerFrom(c *gin.Context) *zap.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if l, ok := v.(*zap.Logger); ok {
			return l
		}
	}
	return zap.NewNop()
}

// limiterIdle is how long a client's bucket survives without requests.
const limiterIdle = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterStore holds one token bucket per client IP. Buckets idle for
// longer than idle are swept at most once per idle period.
type limiterStore struct {
	mu        sync.Mutex
	limiters  map[string]*clientLimiter
	every     rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newLimiterStore(perMinute int, idle time.Duration, now func() time.Time) *limiterStore {
	return &limiterStore{
		limiters:  make(map[string]*clientLimiter),
		every:     rate.Every(time.Minute / time.Duration(perMinute)),
		burst:     max(perMinute/6, 1),
		idle:      idle,
		lastSweep: now(),
		now:       now,
	}
}

func (s *limiterStore) get(ip string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= s.idle {
		for k, cl := range s.limiters {
			if now.Sub(cl.lastSeen) >= s.idle {
				delete(s.limiters, k)
			}
		}
		s.lastSweep = now
	}

	cl, ok := s.limiters[ip]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(s.every, s.burst)}
		s.limiters[ip] = cl
	}
	cl.lastSeen = now
	return cl.limiter
}

func (s *limiterStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}

// RateLimiter applies a token bucket per client IP. perMinute <= 0
// disables limiting.
func RateLimiter(perMinute int) gin.HandlerFunc {
	if perMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return rateLimit(newLimiterStore(perMinute, limiterIdle, time.Now))
}

func rateLimit(store *limiterStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !store.get(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
