package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/horizon/backend/pkg/logger"
	redispkg "github.com/wonny/horizon/backend/pkg/redis"
)

// Limiter gates the compute endpoints
// Redis가 켜져 있으면 슬라이딩 윈도우 (프로세스 간 공유),
// 꺼져 있으면 프로세스 내 토큰 버킷으로 대체
type Limiter interface {
	Allow(ctx context.Context) (bool, error)
}

// NewComputeLimiter picks the limiter implementation by redis availability
// overridePerMin > 0이면 프리셋 한도를 분당 한도로 교체, 0이면 프리셋 그대로, 음수면 제한 없음
func NewComputeLimiter(client *redispkg.Client, preset redispkg.RateLimitConfig, overridePerMin int) Limiter {
	if overridePerMin < 0 {
		return nil // 제한 없음
	}

	cfg := preset
	if overridePerMin > 0 {
		cfg.Limit = overridePerMin
		cfg.Window = time.Minute
	}
	if cfg.Limit <= 0 {
		return nil
	}

	if client != nil && client.Enabled() {
		return &redisLimiter{
			limiter: redispkg.NewRateLimiter(client, "horizon"),
			config:  cfg,
		}
	}

	return &localLimiter{
		limiter: rate.NewLimiter(rate.Every(cfg.Window/time.Duration(cfg.Limit)), cfg.Limit),
	}
}

type redisLimiter struct {
	limiter *redispkg.RateLimiter
	config  redispkg.RateLimitConfig
}

func (l *redisLimiter) Allow(ctx context.Context) (bool, error) {
	allowed, _, err := l.limiter.Allow(ctx, l.config)
	return allowed, err
}

type localLimiter struct {
	limiter *rate.Limiter
}

func (l *localLimiter) Allow(_ context.Context) (bool, error) {
	return l.limiter.Allow(), nil
}

// rateLimitMiddleware rejects requests over the limit with 429
// 리미터 오류는 요청을 막지 않는다 (fail-open)
func rateLimitMiddleware(limiter Limiter, log *logger.Logger, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, err := limiter.Allow(r.Context())
		if err != nil {
			log.WithError(err).Warn("Rate limiter check failed, allowing request")
			next.ServeHTTP(w, r)
			return
		}

		if !allowed {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{
				"error": "Rate limit exceeded, retry later",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
