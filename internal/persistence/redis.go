package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spinozarabel/headstart-admission/internal/config"
)

// Redis wraps the go-redis client.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis using the provided configuration.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}

// AcquireLease takes a best-effort named lease for ttlSeconds using SET NX.
// It returns false when another holder currently owns the lease. A nil Redis
// grants the lease so the sweeps still run in single-instance deployments
// without Redis.
func (r *Redis) AcquireLease(ctx context.Context, name string, ttlSeconds int) (bool, error) {
	if r == nil || r.Client == nil {
		return true, nil
	}
	return r.Client.SetNX(ctx, "lease:"+name, "1", time.Duration(ttlSeconds)*time.Second).Result()
}

// ReleaseLease drops a lease taken with AcquireLease.
func (r *Redis) ReleaseLease(ctx context.Context, name string) {
	if r == nil || r.Client == nil {
		return
	}
	_ = r.Client.Del(ctx, "lease:"+name).Err()
}
