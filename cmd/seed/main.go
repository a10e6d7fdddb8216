// Command seed fills the configured store with demo and generated data.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"

	"shelfswap/internal/bootstrap"
	"shelfswap/internal/config"
	"shelfswap/internal/middleware"
	"shelfswap/internal/seed"
)

func main() {
	demo := flag.Bool("demo", true, "Insert the demo catalog (johndoe, janedoe)")
	numUsers := flag.Int("users", 20, "Number of generated community members")
	collectibles := flag.Int("collectibles", 3, "Collectibles per generated member")
	posts := flag.Int("posts", 2, "Posts per generated member")
	fakeSeed := flag.Int64("seed", 0, "Seed for generated content (0 = random)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	slog.SetDefault(middleware.Logger)

	if cfg.StoreBackend == config.StoreBackendMemory {
		log.Fatal("STORE_BACKEND=memory does not persist; seed a SQL store or set SEED_DEMO_DATA for the server")
	}

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer func() { _ = rt.Close() }()

	res, err := seed.Run(ctx, rt.Store, seed.Options{
		Demo:                *demo,
		NumUsers:            *numUsers,
		CollectiblesPerUser: *collectibles,
		PostsPerUser:        *posts,
		Seed:                *fakeSeed,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d demo users and %d generated users", res.DemoUsers, res.Users)
	if res.Users > 0 {
		log.Printf("Generated users share the password %q", seed.FakePassword)
	}
}
