// Package main is the entry point for the Inkbin API server.
package main

import (
	"context"
	"time"

	"github.com/inkbin/inkbin/internal/cache"
	"github.com/inkbin/inkbin/internal/config"
	"github.com/inkbin/inkbin/internal/data"
	"github.com/inkbin/inkbin/internal/highlight"
	"github.com/inkbin/inkbin/internal/hits"
	"github.com/inkbin/inkbin/internal/http/handler"
	"github.com/inkbin/inkbin/internal/http/router"
	"github.com/inkbin/inkbin/internal/repository/postgres"
	"github.com/inkbin/inkbin/internal/sampler"
	"github.com/inkbin/inkbin/internal/service"
	"github.com/inkbin/inkbin/pkg/logger"
)

func main() {
	ctx := context.Background()

	logger.InitLogging()
	config.InitConf()

	pool, err := data.NewPostgresPool(ctx)
	if err != nil {
		logger.Fatal(ctx, "failed to connect to postgres: %v", err)
	}
	defer pool.Close()
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal(ctx, "failed to ensure schema: %v", err)
	}

	redisClient := data.NewRedisClient()
	defer func() { _ = redisClient.Close() }()

	svc := service.NewService(service.Deps{
		Pastes:   postgres.NewPasteRepository(pool),
		Versions: postgres.NewVersionRepository(pool),
		Contents: postgres.NewContentRepository(pool),
		Cache:    cache.NewRedisCache(redisClient),
		Sampler:  sampler.NewRedisSampler(redisClient),
		Hits:     hits.NewRedisCounter(redisClient, time.Duration(config.Conf.HitWindowHours)*time.Hour),
		Renderer: highlight.NewRenderer(),
		Clock:    service.RealClock{},
	}, service.WithCacheTTL(time.Duration(config.Conf.CacheTTLSeconds)*time.Second))

	// External features referencing pastes hook removal here; for now the
	// engine just records that the notification fired.
	svc.OnRemoval(func(ctx context.Context, ev service.RemovalEvent) {
		logger.With(ctx, map[string]any{
			"short_id": ev.Paste.ShortID,
			"purged":   ev.Purged,
			"reason":   ev.Reason,
		}).Info("paste removal notified")
	})

	if err := svc.WarmSampler(ctx); err != nil {
		// the sampler rebuilds itself lazily, so a cold start without redis
		// still serves traffic
		logger.Warn(ctx, "sampler warm-up failed: %v", err)
	}

	engine := router.New(handler.NewHandler(svc), handler.NewHealthHandler(pool, redisClient))

	port := config.Conf.InkbinPort
	if port == "" {
		logger.Info(ctx, "no port configured, falling back to default: 8080")
		port = "8080"
	}
	if err := engine.Run(":" + port); err != nil {
		logger.Fatal(ctx, "failed to start server: %v", err)
	}
}
