// den-seed populates a Discussion Den database with demo content: a
// few communities, a demo account with a persona, and some posts and
// comments to make a fresh instance browsable.
//
// Usage:
//
//	DATABASE_URL=postgres://... SESSION_SECRET=dev den-seed [-flush]
package main

import (
	"context"
	"errors"
	"flag"
	"log"

	"github.com/discussion-den/den/internal/account"
	"github.com/discussion-den/den/internal/community"
	"github.com/discussion-den/den/internal/config"
	"github.com/discussion-den/den/internal/database"
	"github.com/discussion-den/den/internal/identity"
	"github.com/discussion-den/den/internal/persona"
	"github.com/discussion-den/den/internal/post"
)

func main() {
	flush := flag.Bool("flush", false, "Delete all existing forum data before seeding")
	flag.Parse()

	log.SetFlags(log.Ldate | log.Ltime)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if *flush {
		// Order matters only for users/communities; everything else
		// cascades from posts.
		for _, table := range []string{"posts", "personas", "users", "communities"} {
			if _, err := db.Pool.Exec(ctx, "DELETE FROM "+table); err != nil {
				log.Fatalf("Failed to flush %s: %v", table, err)
			}
		}
		log.Println("Existing data flushed")
	}

	if err := seed(ctx, db, cfg.MaxCommentDepth); err != nil {
		log.Fatalf("Seed failed: %v", err)
	}
	log.Println("Seed complete. Demo login: demo / denpassword")
}

func seed(ctx context.Context, db *database.DB, maxDepth int) error {
	accounts := account.NewStore(db)
	personas := persona.NewStore(db)
	communities := community.NewStore(db)
	posts := post.NewStore(db, maxDepth)

	demo, err := accounts.Create(ctx, account.CreateParams{
		Username: "demo",
		Email:    "demo@example.com",
		Password: "denpassword",
	})
	if errors.Is(err, account.ErrUsernameTaken) || errors.Is(err, account.ErrEmailTaken) {
		return errors.New("database already seeded (use -flush to reset)")
	}
	if err != nil {
		return err
	}
	log.Printf("Created account %s (id %d)", demo.Username, demo.ID)

	nightOwl, err := personas.Create(ctx, persona.CreateParams{
		UserID:   demo.ID,
		Name:     "Night Owl",
		Bio:      strPtr("Posts after midnight."),
		IsPublic: true,
	})
	if err != nil {
		return err
	}
	log.Printf("Created persona %s (id %d)", nightOwl.Name, nightOwl.ID)

	seedCommunities := []struct {
		name, description string
	}{
		{"campus", "General campus talk: events, clubs, and everything in between."},
		{"classes", "Course discussion, study groups, and exam prep."},
		{"housing", "Dorms, apartments, roommates, and sublets."},
	}

	var campus *community.Community
	for _, sc := range seedCommunities {
		comm, err := communities.Create(ctx, sc.name, strPtr(sc.description), nil)
		if err != nil {
			return err
		}
		if campus == nil {
			campus = comm
		}
		log.Printf("Created community %s (id %d)", comm.Name, comm.ID)
	}

	asDemo := identity.AsAccount(demo.ID)
	asOwl := identity.AsPersona(demo.ID, nightOwl.ID)

	welcome, err := posts.Create(ctx, asDemo, post.CreateParams{
		CommunityID: campus.ID,
		Title:       "Welcome to Discussion Den",
		Body:        "Introduce yourself below. Be kind, stay on topic, and read the community rules before posting.",
	})
	if err != nil {
		return err
	}

	late, err := posts.Create(ctx, asOwl, post.CreateParams{
		CommunityID: campus.ID,
		Title:       "Best late-night study spots?",
		Body:        "The library closes at midnight. Where does everyone go after that?",
	})
	if err != nil {
		return err
	}

	first, err := posts.AddComment(ctx, welcome.ID, asDemo, "First! Glad to have everyone here.", nil)
	if err != nil {
		return err
	}
	if _, err := posts.AddComment(ctx, welcome.ID, asOwl, "Hello from the night shift.", &first.ID); err != nil {
		return err
	}
	if _, err := posts.AddComment(ctx, late.ID, asDemo, "The 24h diner on 5th has decent wifi.", nil); err != nil {
		return err
	}

	if _, err := posts.CastVote(ctx, welcome.ID, asOwl, 1); err != nil {
		return err
	}
	if _, err := posts.SetSaved(ctx, late.ID, asDemo, true); err != nil {
		return err
	}

	return nil
}

func strPtr(s string) *string { return &s }
