package main

import (
	"context"
	"log"
	"os"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"fleet-route-planner/internal/adapters/repositories"
	"fleet-route-planner/internal/config"
	"fleet-route-planner/internal/platform/db"
)

// dbtool initializes the Postgres schema and loads the package seed
// file. Run it once before the first server start, or again to reload
// seeds after editing them.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	pool, err := db.Open(ctx, databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	log.Println("Initializing database schema...")
	if err := repositories.InitSchema(ctx, pool); err != nil {
		log.Fatalf("schema initialization failed: %v", err)
	}

	seedPath := config.Get("SEED_PATH", "data/seeds/packages.json")
	log.Printf("Seeding packages from %s...", seedPath)
	if err := repositories.SeedFromJSON(ctx, pool, seedPath); err != nil {
		log.Fatalf("seeding failed: %v", err)
	}
	log.Println("Done.")
}
