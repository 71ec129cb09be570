package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/dockopt/dockopt-backend/config"
	"github.com/dockopt/dockopt-backend/internal/optimizer/repository"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// OpenSessionStore builds the store selected by SESSION_BACKEND. The returned
// release func purges the store and closes any connection it holds.
func OpenSessionStore(ctx context.Context, cfg config.SessionConfig, logger *zap.Logger) (repository.SessionStore, func(context.Context), error) {
	if cfg.Backend != config.BackendRedis {
		store := repository.NewMemoryStore()
		return store, func(ctx context.Context) { _ = store.Close(ctx) }, nil
	}

	client, err := OpenRedis(ctx, RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return nil, nil, err
	}

	instanceID := uuid.New().String()
	store := repository.NewRedisStore(client, instanceID, cfg.TTL)
	logger.Info("redis session store ready",
		zap.String("addr", cfg.RedisAddr),
		zap.String("instance", instanceID),
	)

	keepAlive := cron.New()
	if cfg.TTL > 0 {
		interval := keepAliveInterval(cfg.TTL)
		if _, err := keepAlive.AddFunc(fmt.Sprintf("@every %s", interval), func() {
			rctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := store.Refresh(rctx); err != nil {
				logger.Warn("refreshing redis sessions failed", zap.Error(err))
			}
		}); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("schedule session refresh: %w", err)
		}
		keepAlive.Start()
	}

	release := func(ctx context.Context) {
		<-keepAlive.Stop().Done()
		if err := store.Close(ctx); err != nil {
			logger.Warn("purging redis sessions failed", zap.Error(err))
		}
		_ = client.Close()
	}
	return store, release, nil
}

// keepAliveInterval refreshes well before a key could expire.
func keepAliveInterval(ttl time.Duration) time.Duration {
	interval := ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	return interval
}
