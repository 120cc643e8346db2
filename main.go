// package main provides the entry point for the deptree-backend
// microservice, wiring the npm registry cache, the OSV client, and the
// analysis engine behind the REST and GraphQL API.
package main

import (
	"log"

	"github.com/ortelius/deptree-backend/analysis"
	"github.com/ortelius/deptree-backend/config"
	"github.com/ortelius/deptree-backend/internal/api"
	"github.com/ortelius/deptree-backend/registry"
	"github.com/ortelius/deptree-backend/util"
	"github.com/ortelius/deptree-backend/vulndb"
)

func main() {
	logger := util.InitLogger()
	defer logger.Sync() //nolint:errcheck

	cfg := config.Load()

	// Packument store: Redis when configured, in-process otherwise
	var store registry.Store = registry.NewMemoryStore()
	if cfg.RedisAddr != "" {
		redisStore, err := registry.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL()+cfg.StaleWindow())
		if err != nil {
			log.Fatalf("Failed to connect to Redis at %s: %v", cfg.RedisAddr, err)
		}
		store = redisStore
		logger.Sugar().Infof("Using Redis packument store at %s", cfg.RedisAddr)
	}

	registryClient := registry.NewClient(cfg.RegistryURL)
	packuments := registry.NewPackumentCache(registryClient, store, cfg.CacheTTL(), cfg.StaleWindow())
	vulns := vulndb.NewClient(cfg.OSVURL, cfg.BatchSize, cfg.QueryConcurrency)

	engine := analysis.NewEngine(packuments, vulns, cfg.FetchConcurrency, cfg.MaxDepth)

	app := api.NewFiberApp(engine)

	logger.Sugar().Infof("Starting deptree-backend on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
