package main

import (
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gin-gonic/gin"

	"github.com/shoplocal/directory-service/internal/cache"
	"github.com/shoplocal/directory-service/internal/config"
	"github.com/shoplocal/directory-service/internal/geo"
	"github.com/shoplocal/directory-service/internal/handler"
	"github.com/shoplocal/directory-service/internal/log"
	"github.com/shoplocal/directory-service/internal/repository"
	"github.com/shoplocal/directory-service/internal/service"
	"github.com/shoplocal/directory-service/internal/session"
	"github.com/shoplocal/directory-service/internal/tracking"
	"github.com/shoplocal/directory-service/internal/viewstate"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := log.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// Initialize structured logger
	log.Init(log.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Level == "debug",
		ServiceName: "directory-service",
	})
	logger := log.L()

	// Initialize Elasticsearch client
	esClient, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Elasticsearch.Addresses,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create elasticsearch client")
	}

	// Verify ES connection
	res, err := esClient.Info()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to elasticsearch")
	}
	res.Body.Close()
	logger.Info().Strs("addresses", cfg.Elasticsearch.Addresses).Msg("elasticsearch connected")

	// Initialize repository over the listings materialized view
	searchRepo := repository.NewESListingRepository(
		esClient,
		cfg.Elasticsearch.IndexListings,
		cfg.Elasticsearch.IDFields,
	)

	// Initialize durable client-state store. A cold cache is a correct
	// mode, so an unreachable Redis degrades to in-memory storage
	// instead of refusing to start.
	var store cache.Store
	store, err = cache.NewRedisStore(cfg.Redis)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, falling back to in-memory store")
		store = cache.NewMemoryStore()
	} else {
		logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	}
	defer store.Close()

	ttlCache := cache.NewTTLCache(store, cache.TTLTable{
		"facets": cfg.Cache.FacetTTL,
	}, cfg.Cache.Prefix)

	// Initialize collaborators
	resolver := geo.NewResolver(cfg.Geo)
	notifier := tracking.NewNotifier(cfg.Tracking)
	prefs := viewstate.NewManager(store, cfg.Cache.Prefix)

	sessions := session.NewRegistry(time.Hour)
	stop := make(chan struct{})
	defer close(stop)
	sessions.StartSweeper(10*time.Minute, stop)

	// Initialize service
	directory := service.NewDirectoryService(searchRepo, ttlCache, resolver, notifier, prefs, sessions)

	// Initialize HTTP handler
	httpHandler := handler.NewHandler(directory)

	// Setup Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(log.GinMiddleware(logger))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Register routes
	httpHandler.RegisterRoutes(r)

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info().Str("addr", addr).Msg("directory-service starting")
	if err := r.Run(addr); err != nil {
		logger.Fatal().Err(err).Msg("failed to start server")
	}
}
