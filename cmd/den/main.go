// den is the Discussion Den forum server.
//
// It reads configuration from the environment (a .env file is loaded
// when present), connects to PostgreSQL, bootstraps the schema, and
// starts the HTTP API server.
//
// Usage:
//
//	DATABASE_URL=postgres://... SESSION_SECRET=... ./den
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/discussion-den/den/internal/account"
	"github.com/discussion-den/den/internal/community"
	"github.com/discussion-den/den/internal/config"
	"github.com/discussion-den/den/internal/database"
	"github.com/discussion-den/den/internal/persona"
	"github.com/discussion-den/den/internal/post"
	"github.com/discussion-den/den/internal/server"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("den starting...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Printf("Config loaded (listen=%s)", cfg.ListenAddr)

	// Root context cancelled on SIGINT or SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("Received %v, shutting down...", sig)
		cancel()
	}()

	// Connect to PostgreSQL and bootstrap schema.
	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected, schema bootstrapped")

	accounts := account.NewStore(db)
	personas := persona.NewStore(db)
	communities := community.NewStore(db)
	posts := post.NewStore(db, cfg.MaxCommentDepth)

	// Start the HTTP server (blocks until context is cancelled).
	srv := server.New(cfg, accounts, personas, communities, posts)
	if err := srv.Start(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("den stopped")
}
