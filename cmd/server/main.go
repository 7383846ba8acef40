package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	redis "github.com/redis/go-redis/v9"

	"fleet-route-planner/internal/adapters/cache"
	"fleet-route-planner/internal/adapters/distance"
	"fleet-route-planner/internal/adapters/repositories"
	"fleet-route-planner/internal/api"
	"fleet-route-planner/internal/config"
	"fleet-route-planner/internal/platform/db"
	"fleet-route-planner/internal/platform/metrics"
	"fleet-route-planner/internal/ports"
	"fleet-route-planner/internal/services"
)

// main is the application composition root.
// It wires concrete adapters (Postgres, Redis, the routing service)
// behind ports, then starts the plan workers and the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, repo, pool := openStores(ctx)
	if pool != nil {
		defer pool.Close()
	}

	provider := openProvider(ctx, pool)
	metrics.RegisterDefault()

	svc := services.NewPlanningService(store, repo, provider)
	if err := svc.Recover(ctx); err != nil {
		log.Printf("plan worker: recover failed: %v", err)
	}

	workers := config.GetInt("PLAN_WORKERS", 2)
	interval := config.GetDuration("PLAN_POLL_INTERVAL", time.Second)
	workersDone := make(chan struct{})
	go func() {
		defer close(workersDone)
		svc.RunWorkers(ctx, workers, interval)
	}()

	port := config.Get("PORT", "8080")
	// Write timeout covers cold-cache planning against the remote
	// routing service.
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           api.NewRouter(svc, repo),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log.Printf("Server listening addr=:%s workers=%d", port, workers)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatal(err)
	case sig := <-sigCh:
		log.Printf("Received %s, shutting down", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}

	cancel()
	select {
	case <-workersDone:
	case <-shutdownCtx.Done():
		log.Println("plan workers did not stop in time")
	}
}

// openStores picks the plan store and package repository. With
// DATABASE_URL set both are Postgres-backed; otherwise jobs live in
// memory and the package catalog endpoints stay disabled.
func openStores(ctx context.Context) (ports.PlanStore, ports.PackageRepository, *sql.DB) {
	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if databaseURL == "" {
		log.Println("DATABASE_URL not set, using in-memory plan store")
		return repositories.NewMemoryPlanStore(), nil, nil
	}

	pool, err := db.Open(ctx, databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := repositories.InitSchema(ctx, pool); err != nil {
		log.Fatal(err)
	}

	return repositories.NewPostgresPlanStore(pool), repositories.NewPostgresPackageRepository(pool), pool
}

// openProvider builds the distance provider chain. Without a routing
// service configured the planners fall back to map geometry.
func openProvider(ctx context.Context, pool *sql.DB) ports.DistanceProvider {
	routingURL := strings.TrimSpace(os.Getenv("ROUTING_API_URL"))
	if routingURL == "" {
		log.Println("ROUTING_API_URL not set, planning over map geometry")
		return nil
	}

	remote, err := distance.NewRemoteProvider(routingURL, os.Getenv("ROUTING_API_KEY"))
	if err != nil {
		log.Fatal(err)
	}

	dcache := openDistanceCache(ctx, pool)
	if dcache == nil {
		return remote
	}

	cached, err := distance.NewCachedProvider(remote, dcache)
	if err != nil {
		log.Fatal(err)
	}
	return cached
}

// openDistanceCache prefers Redis, falls back to the Postgres cache
// table, and returns nil when neither backend is configured.
func openDistanceCache(ctx context.Context, pool *sql.DB) ports.DistanceCache {
	if redisURL := strings.TrimSpace(os.Getenv("REDIS_URL")); redisURL != "" {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			log.Fatalf("parse REDIS_URL: %v", err)
		}
		rdb := redis.NewClient(opt)

		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		defer pingCancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Fatalf("verify redis connection: %v", err)
		}

		ttl := config.GetDuration("DISTANCE_CACHE_TTL", 24*time.Hour)
		log.Printf("Distance cache: redis ttl=%s", ttl)
		return cache.NewRedisDistanceCache(rdb, ttl)
	}

	if pool != nil {
		log.Println("Distance cache: postgres")
		return cache.NewPostgresDistanceCache(pool)
	}

	return nil
}
