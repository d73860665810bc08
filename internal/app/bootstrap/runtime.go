package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/vetchart/internal/config"
	"github.com/wolfman30/vetchart/internal/preferences"
	"github.com/wolfman30/vetchart/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildPreferencesStore picks the preferences backend named by
// PREFERENCES_BACKEND. The redis backend requires a live client.
func BuildPreferencesStore(cfg *appconfig.Config, redisClient *redis.Client, logger *logging.Logger) (preferences.Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	switch cfg.PreferencesBackend {
	case "redis":
		if redisClient == nil {
			return nil, fmt.Errorf("bootstrap: preferences backend redis needs REDIS_ADDR")
		}
		logger.Info("preferences stored in redis", "clinic_id", cfg.ClinicID)
		return preferences.NewRedisStore(redisClient, cfg.ClinicID), nil
	case "", "file":
		store, err := preferences.NewFileStore(cfg.PreferencesFile)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
		logger.Info("preferences stored on disk", "path", store.Path())
		return store, nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown preferences backend %q", cfg.PreferencesBackend)
	}
}
