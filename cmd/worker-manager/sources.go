package main

import (
	"context"
	"fmt"
	"time"

	"listing-workers/internal/common/config"
	"listing-workers/internal/common/database"
	"listing-workers/internal/common/logger"
	"listing-workers/internal/httpapi"
	"listing-workers/internal/listingstore"
)

// buildSource connects the configured listing backend, optionally fronted by
// the Redis snapshot cache. Health checks for every connection are added to
// checks. The returned func closes all connections.
func buildSource(ctx context.Context, cfg *config.Config, log logger.Logger, checks map[string]httpapi.HealthCheck) (listingstore.Source, func(), error) {
	var (
		source  listingstore.Source
		closers []func() error
	)
	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Warn("error closing connection", map[string]interface{}{"error": err})
			}
		}
	}

	switch cfg.Listings.Source {
	case config.SourcePostgres:
		var pg *database.PostgresClient
		err := retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 5, 2*time.Second, log, "PostgreSQL connection")
		if err != nil {
			return nil, closeAll, err
		}
		closers = append(closers, pg.Close)
		checks["postgres"] = pg.Ping
		source = listingstore.NewPostgresSource(pg.DB, cfg.Listings.Table, cfg.Listings.PageSize, log)

	case config.SourceElasticsearch:
		var es *database.ElasticsearchClient
		err := retryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping(ctx)
		}, 5, 2*time.Second, log, "Elasticsearch connection")
		if err != nil {
			return nil, closeAll, err
		}
		checks["elasticsearch"] = es.Ping
		source = listingstore.NewElasticsearchSource(es.Client, cfg.Listings.Index, cfg.Listings.PageSize, log)

	default:
		return nil, closeAll, fmt.Errorf("unknown listing source %q", cfg.Listings.Source)
	}

	log.Info("listing source connected", map[string]interface{}{"source": cfg.Listings.Source})

	if cfg.Database.Redis.Address == "" {
		return source, closeAll, nil
	}

	rdb := database.NewRedis(cfg.Database.Redis)
	if err := rdb.Ping(ctx); err != nil {
		// The cache degrades to direct reads, so an unreachable Redis is not fatal.
		log.Warn("redis unavailable at startup", map[string]interface{}{"error": err})
	}
	closers = append(closers, rdb.Close)
	checks["redis"] = rdb.Ping

	ttl := config.GetDuration(cfg.Listings.CacheTTL)
	log.Info("listing snapshot cache enabled", map[string]interface{}{
		"key": cfg.Listings.CacheKey,
		"ttl": ttl.String(),
	})
	return listingstore.NewCachedSource(source, rdb.Client, cfg.Listings.CacheKey, ttl, log), closeAll, nil
}
