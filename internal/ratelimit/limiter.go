package ratelimit

import (
	"context"
	"strings"
	"time"

	"github.com/himap/directory/internal/config"
	"github.com/himap/directory/internal/observability/metrics"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	EndpointProvision = "members.provision"

	keyProvision = "directory:provision:ip:"
)

type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Limiter decides whether a client may make another attempt.
type Limiter interface {
	Allow(ctx context.Context, clientKey string) Decision
}

type Params struct {
	fx.In

	Lc      fx.Lifecycle
	Cfg     config.Config
	Log     *zap.Logger
	Metrics *metrics.Metrics `optional:"true"`
}

// NewProvisionLimiter returns a Redis-backed limiter for member
// provisioning, or one that always allows when REDIS_ADDR is unset.
func NewProvisionLimiter(p Params) Limiter {
	log := p.Log.Named("ratelimit")
	addr := strings.TrimSpace(p.Cfg.RedisAddr)
	if addr == "" {
		log.Info("provisioning rate limit disabled, REDIS_ADDR not set")
		return allowAll{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(p.Cfg.RedisPassword),
	})
	p.Lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return newBucketLimiter(NewTokenBucket(client), p.Cfg.RateLimit, log, p.Metrics)
}

type allowAll struct{}

func (allowAll) Allow(context.Context, string) Decision {
	return Decision{Allowed: true}
}

type bucketLimiter struct {
	bucket  *TokenBucket
	rate    float64
	burst   int
	log     *zap.Logger
	metrics *metrics.Metrics
}

func newBucketLimiter(bucket *TokenBucket, cfg config.RateLimitConfig, log *zap.Logger, m *metrics.Metrics) *bucketLimiter {
	rate := cfg.ProvisionRate
	if rate <= 0 {
		rate = 0.2
	}
	burst := cfg.ProvisionBurst
	if burst <= 0 {
		burst = 5
	}
	return &bucketLimiter{bucket: bucket, rate: rate, burst: burst, log: log, metrics: m}
}

// Allow fails open: a Redis outage must not block provisioning.
func (l *bucketLimiter) Allow(ctx context.Context, clientKey string) Decision {
	clientKey = strings.TrimSpace(clientKey)
	if clientKey == "" {
		clientKey = "unknown"
	}

	res, err := l.bucket.Allow(ctx, keyProvision+clientKey, l.rate, l.burst)
	if err != nil {
		l.log.Warn("rate limit check failed, allowing request", zap.Error(err))
		return Decision{Allowed: true}
	}
	if !res.Allowed {
		l.metrics.RecordRateLimitDenied(ctx, EndpointProvision)
		return Decision{Allowed: false, RetryAfter: res.RetryAfter}
	}
	return Decision{Allowed: true}
}
