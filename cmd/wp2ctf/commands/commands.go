// Package commands implements the wp2ctf subcommands.
package commands

import (
	"context"
	"errors"
	"log/slog"

	"github.com/openjobspec/wp2ctf/internal/cache"
	"github.com/openjobspec/wp2ctf/internal/config"
	"github.com/openjobspec/wp2ctf/internal/contentful"
	"github.com/openjobspec/wp2ctf/internal/wordpress"
)

// ErrPartialFailure is returned when a run completed but some records,
// media items or question types failed. main maps it to exit code 2.
var ErrPartialFailure = errors.New("migration finished with failures")

func newWordPress(cfg *config.Config) *wordpress.Client {
	return wordpress.New(wordpress.Options{
		BaseURL:  cfg.WordPressBaseURL(),
		Endpoint: cfg.WPMigrationEndpoint,
		User:     cfg.WPUser,
		Password: cfg.WPPassword,
		Timeout:  cfg.HTTPTimeout,
	})
}

func newContentful(cfg *config.Config) *contentful.Client {
	return contentful.New(contentful.Options{
		BaseURL:     cfg.CTFBaseURL,
		Token:       cfg.CTFToken,
		SpaceID:     cfg.CTFSpaceID,
		Environment: cfg.CTFEnv,
		Locale:      cfg.CTFLocale,
		Timeout:     cfg.HTTPTimeout,
	})
}

// newAssetCache connects to Redis when MIGRATE_REDIS_URL is set. Without
// Redis, or when it cannot be reached, uploads are only shared within this
// run.
func newAssetCache(ctx context.Context, cfg *config.Config) (cache.AssetCache, func()) {
	if cfg.RedisURL == "" {
		return &cache.Memory{}, func() {}
	}
	rc, err := cache.NewRedis(ctx, cfg.RedisURL, cfg.CTFSpaceID, cfg.CTFEnv)
	if err != nil {
		slog.Warn("redis asset cache disabled", "error", err)
		return &cache.Memory{}, func() {}
	}
	slog.Info("asset cache enabled", "key", cache.HashKey(cfg.CTFSpaceID, cfg.CTFEnv))
	return rc, func() { rc.Close() }
}
