package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jengzang/crash-records-backend-go/internal/api"
	"github.com/jengzang/crash-records-backend-go/internal/config"
	"github.com/jengzang/crash-records-backend-go/internal/database"
	"github.com/jengzang/crash-records-backend-go/internal/engine"
	"github.com/jengzang/crash-records-backend-go/internal/handler"
	"github.com/jengzang/crash-records-backend-go/internal/middleware"
	"github.com/jengzang/crash-records-backend-go/internal/repository"
	"github.com/jengzang/crash-records-backend-go/internal/service"
	"github.com/jengzang/crash-records-backend-go/internal/spatial"
	"github.com/jengzang/crash-records-backend-go/internal/store"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := database.Init(cfg.Database()); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	counter, err := spatial.NewCounter(cfg.DensityIndex)
	if err != nil {
		log.Fatalf("Invalid density index: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo := repository.NewCrashRepository(database.GetDB())
	records := store.New(repo, store.Options{
		Engine: engine.Options{
			TopFactors:    cfg.TopFactors,
			GeoPointLimit: cfg.GeoPointLimit,
			DensityRadius: cfg.DensityRadius,
			Counter:       counter,
		},
		WatchPath:       cfg.WatchPath(),
		RefreshInterval: cfg.RefreshInterval,
	})
	defer records.Close()

	if _, err := records.Reload(ctx); err != nil {
		log.Fatalf("Failed to load dataset: %v", err)
	}
	if err := records.Watch(ctx); err != nil {
		log.Printf("[Store] reload watcher disabled: %v", err)
	}

	statsService, err := service.NewStatsService(records, repo, service.StatsOptions{
		CacheSize:   cfg.StatsCacheSize,
		SampleLimit: cfg.SampleLimit,
	})
	if err != nil {
		log.Fatalf("Failed to create stats service: %v", err)
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimitRequests > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
		defer limiter.Stop()
	}

	router := api.SetupRouter(handler.NewStatsHandler(statsService), limiter)
	server := &http.Server{
		Addr:              cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s (density index %s)", cfg.Port, counter.Name())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
}
